package lint

import (
	"time"

	"github.com/forestrie/go-chainvault/crypto"
	"github.com/forestrie/go-chainvault/record"
	"github.com/forestrie/go-chainvault/redolog"
	"github.com/forestrie/go-chainvault/session"
)

// nowNano is overridable in tests; production code always uses the real
// monotonic-backed wall clock.
var nowNano = func() int64 { return time.Now().UnixNano() }

// WriteBatch is one commit's worth of staged events, processed atomically:
// either every event in the batch is authorized, encrypted, timestamped and
// signed, or the whole batch is rejected before anything reaches the log.
type WriteBatch struct {
	Events []record.Event
}

// signatureAccumulator collects, per distinct signing key used in this
// batch, every payload hash signed under it -- emitted as one Signature
// event per key at the end of the batch (§4.D step 4).
type signatureAccumulator struct {
	order  []crypto.Hash
	hashes map[crypto.Hash][]crypto.Hash
}

func newSignatureAccumulator() *signatureAccumulator {
	return &signatureAccumulator{hashes: map[crypto.Hash][]crypto.Hash{}}
}

func (a *signatureAccumulator) add(keyHash, payloadHash crypto.Hash) {
	if _, ok := a.hashes[keyHash]; !ok {
		a.order = append(a.order, keyHash)
	}
	a.hashes[keyHash] = append(a.hashes[keyHash], payloadHash)
}

// RunWritePipeline processes batch in place, consulting idx for already
// committed authorization/parent state, and returns the fully processed
// event list -- the caller's original events (authorized, encrypted,
// timestamped) plus one trailing Signature event per distinct key used.
func RunWritePipeline(s session.Session, idx AuthIndex, rootPolicy record.WriteOption, integrity redolog.IntegrityMode, batch WriteBatch) ([]record.Event, error) {
	pending := newPendingAuth()
	for _, e := range batch.Events {
		pending.observe(e)
	}

	accum := newSignatureAccumulator()
	out := make([]record.Event, 0, len(batch.Events)+1)

	for _, e := range batch.Events {
		dataKey, hasKey := e.Metadata.GetDataKey()
		if !hasKey {
			// Metadata-only events carrying no entity (e.g. a standalone
			// PublicKey announcement) skip authorization entirely.
			e = stampTimestamp(e)
			out = append(out, e)
			continue
		}

		writeOpt, err := ResolveWriteOption(idx, pending, rootPolicy, dataKey)
		if err != nil {
			return nil, err
		}
		signKey, err := checkWriterAuthorized(s, dataKey, writeOpt)
		if err != nil {
			return nil, err
		}

		e, err = encryptIfRequired(s, idx, pending, dataKey, e)
		if err != nil {
			return nil, err
		}
		e = stampTimestamp(e)

		if len(e.Data) > 0 {
			accum.add(signKey.PublicKey().Hash(), e.PayloadHash())
		}

		if integrity == redolog.Distributed {
			if _, err := e.HeaderHash(record.FormatBinary); err != nil {
				return nil, err
			}
		}

		out = append(out, e)
	}

	for _, keyHash := range accum.order {
		keys := session.AllKeys(s)
		signKey, ok := keys.HasSignKeyForHash(keyHash)
		if !ok {
			return nil, ErrNoSignature
		}
		hashes := accum.hashes[keyHash]
		sigEvent, err := buildSignatureEvent(signKey, hashes)
		if err != nil {
			return nil, err
		}
		out = append(out, sigEvent)
	}

	return out, nil
}

func stampTimestamp(e record.Event) record.Event {
	e.Metadata.Append(record.TimestampTag(nowNano()))
	return e
}

// encryptIfRequired resolves pk's effective ReadOption; if it names a
// specific symmetric key, encrypts e.Data in place and attaches an
// Encryption tag naming the key's hash.
func encryptIfRequired(s session.Session, idx AuthIndex, pending *pendingAuth, pk record.PrimaryKey, e record.Event) (record.Event, error) {
	readOpt, found, err := ResolveReadOption(idx, pending, pk)
	if err != nil {
		return e, err
	}
	if !found || readOpt.Kind != record.ReadSpecific || len(e.Data) == 0 {
		return e, nil
	}

	keys := session.AllKeys(s)
	key, ok := keys.HasReadKeyForHash(readOpt.KeyHash)
	if !ok {
		return e, &TransformError{Kind: TransformMissingReadKey, Hash: readOpt.KeyHash}
	}

	iv, ciphertext, err := key.Encrypt(e.Data)
	if err != nil {
		return e, err
	}
	e.Data = append(iv, ciphertext...)
	e.Metadata.Append(record.EncryptionTag(readOpt.KeyHash))
	return e, nil
}

// buildSignatureEvent signs the DigestHashes fold of the accumulated
// payload hashes; the raw signature bytes become the event's Data, and the
// Signature metadata tag names the signing key and exactly which payload
// hashes it vouches for.
func buildSignatureEvent(key crypto.PrivateSignKey, hashes []crypto.Hash) (record.Event, error) {
	digest := DigestHashes(hashes)
	sigBytes, err := key.Sign(digest.Bytes())
	if err != nil {
		return record.Event{}, err
	}

	return record.Event{
		Metadata: record.Metadata{Tags: []record.Tag{record.SignatureTag(key.PublicKey().Hash(), hashes)}},
		Data:     sigBytes,
	}, nil
}

// DigestHashes folds a list of payload hashes into the single digest a
// Signature event's data actually signs, so verification doesn't require
// reconstructing an ordered byte concatenation of arbitrary length.
func DigestHashes(hashes []crypto.Hash) crypto.Hash {
	digest := crypto.ZeroHash
	for _, h := range hashes {
		digest = crypto.FromBytesTwice(digest.Bytes(), h.Bytes())
	}
	return digest
}
