package crypto

import "golang.org/x/crypto/argon2"

// KDFCost parameterizes the memory-hard password KDF. Time/Memory follow the
// argon2id recommendations; higher Memory values cost proportionally more to
// brute-force at the expense of legitimate callers' latency.
type KDFCost struct {
	Time    uint32 // iterations
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultKDFCost is a reasonable interactive-use cost, matching argon2id's
// own recommended minimum (3 iterations, 64 MiB, 4 threads).
var DefaultKDFCost = KDFCost{Time: 3, Memory: 64 * 1024, Threads: 4}

// DeriveEncryptKeyArgon2 derives an EncryptKey of the requested width from a
// password and caller-supplied salt ("prefix salt" in the original design --
// callers typically prefix a fixed per-deployment value to a per-key random
// salt before calling this).
func DeriveEncryptKeyArgon2(password []byte, salt []byte, size KeySize, cost KDFCost) (EncryptKey, error) {
	n, err := aesKeyLen(size)
	if err != nil {
		return EncryptKey{}, err
	}
	key := argon2.IDKey(password, salt, cost.Time, cost.Memory, cost.Threads, uint32(n))
	return EncryptKey{size: size, bytes: key}, nil
}
