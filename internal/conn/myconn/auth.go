package myconn

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/sqlcore/sqlcore/internal/myproto"
)

// nativePasswordHash computes mysql_native_password's scramble:
// SHA1(password) XOR SHA1(nonce + SHA1(SHA1(password))).
func nativePasswordHash(password string, nonce []byte) []byte {
	if password == "" {
		return nil
	}
	h1 := sha1.Sum([]byte(password))
	h2 := sha1.Sum(h1[:])
	h := sha1.New()
	h.Write(nonce)
	h.Write(h2[:])
	h3 := h.Sum(nil)
	out := make([]byte, len(h1))
	for i := range out {
		out[i] = h1[i] ^ h3[i]
	}
	return out
}

// cachingSHA2Scramble computes caching_sha2_password's (and
// sha256_password's) fast-auth scramble: the same XOR-of-double-hash
// construction as mysql_native_password but over SHA-256 instead of
// SHA-1, per the MySQL source's scramble_sha256.
func cachingSHA2Scramble(password string, nonce []byte) []byte {
	if password == "" {
		return nil
	}
	stage1 := sha256.Sum256([]byte(password))
	stage2 := sha256.Sum256(stage1[:])
	h := sha256.New()
	h.Write(stage2[:])
	h.Write(nonce)
	stage3 := h.Sum(nil)
	out := make([]byte, len(stage1))
	for i := range out {
		out[i] = stage1[i] ^ stage3[i]
	}
	return out
}

// xorWithNonce XORs password (including a trailing NUL, as the full-auth
// RSA path requires) against nonce, repeating nonce as needed.
func xorWithNonce(password string, nonce []byte) []byte {
	src := append([]byte(password), 0)
	out := make([]byte, len(src))
	for i := range src {
		out[i] = src[i] ^ nonce[i%len(nonce)]
	}
	return out
}

// encryptPasswordRSA encrypts the XOR'd password for caching_sha2_password
// / sha256_password's "full authentication" path using the server's RSA
// public key, per the protocol's RSA_PKCS1_OAEP_PADDING requirement.
func encryptPasswordRSA(password string, nonce []byte, publicKeyPEM []byte) ([]byte, error) {
	block, _ := pem.Decode(publicKeyPEM)
	if block == nil {
		return nil, fmt.Errorf("myconn: server RSA public key is not valid PEM")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("myconn: parsing server RSA public key: %w", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("myconn: server public key is not RSA")
	}
	plain := xorWithNonce(password, nonce)
	return rsa.EncryptOAEP(sha1.New(), rand.Reader, rsaPub, plain, nil)
}

// authResponseFor computes the initial HandshakeResponse41 auth-response
// bytes for the plugin the server's greeting advertised.
func authResponseFor(plugin, password string, nonce []byte) []byte {
	switch plugin {
	case myproto.AuthCachingSHA2Password, myproto.AuthSHA256Password:
		return cachingSHA2Scramble(password, nonce)
	default:
		return nativePasswordHash(password, nonce)
	}
}
