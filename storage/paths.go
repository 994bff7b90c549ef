package storage

import (
	"fmt"
	"strings"
)

// TenantPrefix is the "tenant/" style path component the teacher's storage
// paths use to scope a log id to its owning tenant (§6 multi-tenant
// deployments share one LogPath/BackupPath root directory).
func TenantPrefix(tenant string) string {
	return fmt.Sprintf("%s/", tenant)
}

// ChainKey is the filename chain.Open/redolog.Open look up under
// ChainConfig.LogPath (and, if set, BackupPath) -- a tenant prefix followed
// by the chain's id, the same "prefix + uuid" convention the teacher's
// storage package uses for massif blob paths.
func ChainKey(tenant string, id ChainID) string {
	return TenantPrefix(tenant) + id.String()
}

// ParseChainKey recovers the chain id encoded in a key built by ChainKey,
// tolerating any trailing path segment the way ParsePrefixedLogID does.
func ParseChainKey(tenant, key string) (ChainID, error) {
	prefix := TenantPrefix(tenant)
	i := strings.Index(key, prefix)
	if i == -1 {
		return ChainID{}, fmt.Errorf("storage: key %q does not carry tenant prefix %q", key, prefix)
	}
	rest := key[i+len(prefix):]
	if j := strings.Index(rest, "/"); j != -1 {
		rest = rest[:j]
	}
	return ChainIDFromString(rest)
}
