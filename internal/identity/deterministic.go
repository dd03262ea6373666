// Package identity derives stable ids for records keyed by natural names.
package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// Kind namespaces natural keys so a category and a blogger sharing a name
// still get different ids.
type Kind string

const (
	KindCategory Kind = "category"
	KindBlogger  Kind = "blogger"
)

// For returns the id of the record of kind named key. Keys are compared
// case-insensitively after trimming; a blank key yields uuid.Nil.
func For(kind Kind, key string) uuid.UUID {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return uuid.Nil
	}
	return UUID("go-cms-blog:" + string(kind) + ":" + key)
}

// UUID hashes an already namespaced key with go-hashid, falling back to a
// name based v5 UUID if hashing fails.
func UUID(key string) uuid.UUID {
	key = strings.TrimSpace(key)
	if key == "" {
		return uuid.Nil
	}
	id, err := hashid.NewUUID(key, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err == nil && id != uuid.Nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
}

func CategoryUUID(name string) uuid.UUID { return For(KindCategory, name) }

func BloggerUUID(shortName string) uuid.UUID { return For(KindBlogger, shortName) }
