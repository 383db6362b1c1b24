package store

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strconv"

	"github.com/roach88/logrename/internal/engine"
)

// DomainRename prefixes rename IDs. The version suffix leaves room for a
// future change of the hashed fields.
const DomainRename = "logrename/rename/v1"

// hashWithDomain computes SHA-256 with domain separation:
// SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RenameID computes the content-addressed ID of a journaled rename. Each
// field is length-prefixed so no two field lists encode alike.
func RenameID(sessionID string, ev engine.RenameEvent) string {
	var buf []byte
	for _, f := range []string{
		sessionID,
		strconv.FormatInt(ev.Seq, 10),
		string(ev.Kind),
		string(ev.Category),
		ev.Class,
		ev.Method,
		ev.From,
		ev.To,
		ev.Site,
	} {
		buf = binary.AppendUvarint(buf, uint64(len(f)))
		buf = append(buf, f...)
	}
	return hashWithDomain(DomainRename, buf)
}
