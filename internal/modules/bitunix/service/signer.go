package service

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Signer подписывает запросы Bitunix:
// sign = sha256(sha256(nonce+timestamp+apiKey+canonical) + secretKey).
type Signer struct {
	APIKey    string
	SecretKey string

	Nonce func() string
	Now   func() time.Time
}

func NewSigner(apiKey, secretKey string) *Signer {
	return &Signer{
		APIKey:    apiKey,
		SecretKey: secretKey,
		Nonce:     NewNonce,
		Now:       time.Now,
	}
}

// NewNonce uuid v4 (crypto/rand) без дефисов, 32 hex.
func NewNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CanonicalQuery ключи по ASCII, key+value подряд без разделителей.
func CanonicalQuery(query map[string]string) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(query[k])
	}
	return b.String()
}

// Sign чистая функция от входов.
func (s *Signer) Sign(nonce, timestamp, canonical string) string {
	digest := sha256Hex(nonce + timestamp + s.APIKey + canonical)
	return sha256Hex(digest + s.SecretKey)
}

// Headers для GET подписывается query, иначе body ровно в том виде, в каком уйдёт в сеть.
func (s *Signer) Headers(method string, query map[string]string, body []byte) http.Header {
	nonce := s.Nonce()
	ts := strconv.FormatInt(s.Now().UnixMilli(), 10)

	canonical := string(body)
	if method == http.MethodGet {
		canonical = CanonicalQuery(query)
	}

	h := http.Header{}
	h.Set("api-key", s.APIKey)
	h.Set("sign", s.Sign(nonce, ts, canonical))
	h.Set("nonce", nonce)
	h.Set("timestamp", ts)
	h.Set("language", "en-US")
	h.Set("Content-Type", "application/json")
	return h
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
