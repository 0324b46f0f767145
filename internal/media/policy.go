// Package media validates uploaded images and assigns them storage
// references.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidMediaType   = errors.New("invalid media type")
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrTooManyAttachments = errors.New("too many attachments")
)

// Kind names the record an upload is attached to.
type Kind string

const (
	KindProfile Kind = "profile"
	KindEntry   Kind = "entry"
)

// Payload is one uploaded file as received from the client.
type Payload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Rule is the upload policy for one Kind.
type Rule struct {
	Kind              Kind
	MaxBytes          int64
	MaxFiles          int
	AllowedTypes      []string
	AllowedExtensions []string
}

var (
	imageTypes      = []string{"image/jpeg", "image/jpg", "image/png", "image/gif"}
	imageExtensions = []string{".jpeg", ".jpg", ".png", ".gif"}
)

// ProfileRule allows a single raster image of at most maxBytes.
func ProfileRule(maxBytes int64) Rule {
	return Rule{
		Kind:              KindProfile,
		MaxBytes:          maxBytes,
		MaxFiles:          1,
		AllowedTypes:      imageTypes,
		AllowedExtensions: imageExtensions,
	}
}

// EntryRule allows up to maxFiles raster images of at most maxBytes each.
func EntryRule(maxBytes int64, maxFiles int) Rule {
	return Rule{
		Kind:              KindEntry,
		MaxBytes:          maxBytes,
		MaxFiles:          maxFiles,
		AllowedTypes:      imageTypes,
		AllowedExtensions: imageExtensions,
	}
}

type Policy struct {
	store  Store
	prefix string
	rules  map[Kind]Rule
}

// NewPolicy returns a policy writing to store. References handed out are
// publicPrefix joined with the storage key.
func NewPolicy(store Store, publicPrefix string, rules ...Rule) *Policy {
	byKind := make(map[Kind]Rule, len(rules))
	for _, rule := range rules {
		byKind[rule.Kind] = rule
	}
	return &Policy{
		store:  store,
		prefix: strings.TrimRight(publicPrefix, "/"),
		rules:  byKind,
	}
}

// ValidateAndStore checks the whole batch against the rule for kind and only
// then writes it. Checks run in order: count, type, size. If a write fails,
// objects already written for the batch are removed before returning.
func (p *Policy) ValidateAndStore(ctx context.Context, payloads []Payload, kind Kind, ownerID string) ([]string, error) {
	rule, ok := p.rules[kind]
	if !ok {
		return nil, fmt.Errorf("no media rule for kind %q", kind)
	}

	if len(payloads) > rule.MaxFiles {
		return nil, fmt.Errorf("%w: got %d, limit %d", ErrTooManyAttachments, len(payloads), rule.MaxFiles)
	}

	exts := make([]string, len(payloads))
	types := make([]string, len(payloads))
	for i, payload := range payloads {
		ext, contentType, err := rule.checkType(payload)
		if err != nil {
			return nil, err
		}
		exts[i] = ext
		types[i] = contentType
	}

	for _, payload := range payloads {
		if payload.Size > rule.MaxBytes {
			return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrPayloadTooLarge, payload.Filename, payload.Size, rule.MaxBytes)
		}
	}

	refs := make([]string, 0, len(payloads))
	written := make([]string, 0, len(payloads))
	for i, payload := range payloads {
		key, err := storageKey(kind, ownerID, exts[i])
		if err != nil {
			p.rollback(ctx, written)
			return nil, err
		}
		if err := p.store.Put(ctx, key, payload.Reader, payload.Size, types[i]); err != nil {
			p.rollback(ctx, written)
			return nil, fmt.Errorf("store %s failed: %w", key, err)
		}
		written = append(written, key)
		refs = append(refs, p.prefix+"/"+key)
	}
	return refs, nil
}

// Remove deletes the objects behind refs. References that were not handed out
// by this policy are ignored.
func (p *Policy) Remove(ctx context.Context, refs ...string) error {
	var errs []error
	for _, ref := range refs {
		key, ok := p.KeyFromRef(ref)
		if !ok {
			continue
		}
		if err := p.store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s failed: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// KeyFromRef returns the storage key behind a reference.
func (p *Policy) KeyFromRef(ref string) (string, bool) {
	key, ok := strings.CutPrefix(ref, p.prefix+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

func (p *Policy) rollback(ctx context.Context, keys []string) {
	for _, key := range keys {
		_ = p.store.Delete(context.WithoutCancel(ctx), key)
	}
}

func (r Rule) checkType(payload Payload) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(payload.Filename))
	if !slices.Contains(r.AllowedExtensions, ext) {
		return "", "", fmt.Errorf("%w: extension %q of %s", ErrInvalidMediaType, ext, payload.Filename)
	}

	contentType, _, err := mime.ParseMediaType(payload.ContentType)
	if err != nil {
		return "", "", fmt.Errorf("%w: media type %q of %s", ErrInvalidMediaType, payload.ContentType, payload.Filename)
	}
	contentType = strings.ToLower(contentType)
	if !slices.Contains(r.AllowedTypes, contentType) {
		return "", "", fmt.Errorf("%w: media type %q of %s", ErrInvalidMediaType, contentType, payload.Filename)
	}
	return ext, contentType, nil
}

// storageKey names profile pictures after their owner so a new upload
// replaces the previous one. Entry images get a time-ordered UUIDv7.
func storageKey(kind Kind, ownerID, ext string) (string, error) {
	switch kind {
	case KindProfile:
		return "profile_pictures/profile-" + ownerID + ext, nil
	case KindEntry:
		token, err := uuid.NewV7()
		if err != nil {
			return "", fmt.Errorf("generate image name failed: %w", err)
		}
		return "entry_images/entry-" + token.String() + ext, nil
	default:
		return "", fmt.Errorf("no storage layout for kind %q", kind)
	}
}
