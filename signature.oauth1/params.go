// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oauth1

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Names of the protocol parameters.
const (
	ParamConsumerKey     = "oauth_consumer_key"
	ParamNonce           = "oauth_nonce"
	ParamSignature       = "oauth_signature"
	ParamSignatureMethod = "oauth_signature_method"
	ParamTimestamp       = "oauth_timestamp"
	ParamToken           = "oauth_token"
	ParamVersion         = "oauth_version"

	SignatureMethod = "HMAC-SHA1"
	Version         = "1.0"
)

// Pair is one parameter, in whatever encoding its producer left it in.
type Pair struct {
	Key   string
	Value string
}

// Params keeps pairs in insertion order. Keys are expected to be unique.
type Params []Pair

// Add appends a pair.
func (p *Params) Add(key, value string) {
	*p = append(*p, Pair{Key: key, Value: value})
}

// Get returns the value of the first pair with the given key.
func (p Params) Get(key string) (string, bool) {
	for i := range p {
		if p[i].Key == key {
			return p[i].Value, true
		}
	}
	return "", false
}

// SplitRawParams breaks an already encoded "a=b&c=d" into pairs
// without decoding anything.
//
// Empty entries are skipped. An entry lacking '=' gets an empty value,
// and anything after a second '=' is discarded.
func SplitRawParams(raw string) Params {
	if raw == "" {
		return nil
	}
	p := make(Params, 0, strings.Count(raw, "&")+1)
	for _, entry := range strings.Split(raw, "&") {
		if entry == "" {
			continue
		}
		kv := strings.SplitN(entry, "=", 3)
		if len(kv) == 1 {
			p = append(p, Pair{Key: kv[0]})
			continue
		}
		p = append(p, Pair{Key: kv[0], Value: kv[1]})
	}
	return p
}

// ParameterGenerator yields the protocol parameters of one request,
// excluding the signature.
type ParameterGenerator interface {
	Generate(consumerKey, token string) (Params, error)
}

// nonceLen is in bytes, before hex encoding.
const nonceLen = 16

// Generator is the ParameterGenerator used in production.
//
// Its zero value draws from the wall clock and crypto/rand.
type Generator struct {
	Now     func() time.Time
	Entropy io.Reader
}

// Generate implements the ParameterGenerator interface.
func (g Generator) Generate(consumerKey, token string) (Params, error) {
	now, entropy := g.Now, g.Entropy
	if now == nil {
		now = time.Now
	}
	if entropy == nil {
		entropy = rand.Reader
	}

	var raw [nonceLen]byte
	if _, err := io.ReadFull(entropy, raw[:]); err != nil {
		return nil, errors.Wrap(err, "oauth1: drawing nonce")
	}
	nonce := strings.ToUpper(hex.EncodeToString(raw[:]))

	return protocolParams(consumerKey, token, now().Unix(), nonce), nil
}

// FixedGenerator always yields the same nonce and timestamp.
// Use it to reproduce test vectors.
type FixedGenerator struct {
	Nonce     string
	Timestamp int64
}

// Generate implements the ParameterGenerator interface.
func (g FixedGenerator) Generate(consumerKey, token string) (Params, error) {
	return protocolParams(consumerKey, token, g.Timestamp, g.Nonce), nil
}

func protocolParams(consumerKey, token string, timestamp int64, nonce string) Params {
	p := make(Params, 0, 7)
	p.Add(ParamConsumerKey, consumerKey)
	p.Add(ParamSignatureMethod, SignatureMethod)
	p.Add(ParamTimestamp, strconv.FormatInt(timestamp, 10))
	p.Add(ParamNonce, nonce)
	p.Add(ParamVersion, Version)
	if token != "" {
		p.Add(ParamToken, token)
	}
	return p
}
