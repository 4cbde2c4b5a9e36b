// Package tlsconfig is the TLS adapter (§2, §6): it builds a *tls.Config
// and wraps a plaintext net.Listener into one that hands out TLS
// connections, presenting the same accept/read/write contract regardless
// of whether the certificate came from a manual file pair or from
// Let's Encrypt via ACME.
//
// Built as a fluent Config builder over golang.org/x/crypto/acme/autocert,
// a maintained ecosystem ACME client, rather than a hand-rolled one.
package tlsconfig

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/crypto/acme"
	"golang.org/x/crypto/acme/autocert"
)

// ErrNoCertSource is returned by Build when neither a manual cert/key pair
// nor AutoCert domains were configured.
var ErrNoCertSource = errors.New("tlsconfig: no certificate source configured")

// Config is a fluent builder over crypto/tls.Config (WithManualCert /
// WithAutoCert / ...).
type Config struct {
	certFile, keyFile string

	autoCert    bool
	email       string
	domains     []string
	staging     bool
	certCacheDir string

	minVersion   uint16
	maxVersion   uint16
	nextProtos   []string
	clientAuth   tls.ClientAuthType
}

// NewConfig returns a Config with modern, conservative defaults: TLS 1.2
// minimum, TLS 1.3 maximum, ALPN advertising HTTP/1.1 only (this module
// does not speak HTTP/2 — §1 Non-goals).
func NewConfig() *Config {
	return &Config{
		minVersion: tls.VersionTLS12,
		maxVersion: tls.VersionTLS13,
		nextProtos: []string{"http/1.1"},
		certCacheDir: "tls-certs",
	}
}

// WithManualCert configures a static certificate/private key file pair —
// the "ssl certificate + private key" configuration option named in §6.
func (c *Config) WithManualCert(certFile, keyFile string) *Config {
	c.certFile, c.keyFile = certFile, keyFile
	c.autoCert = false
	return c
}

// WithAutoCert enables Let's Encrypt certificate management for the given
// domains, identified to the CA by email.
func (c *Config) WithAutoCert(email string, domains ...string) *Config {
	c.autoCert = true
	c.email = email
	c.domains = domains
	return c
}

// WithStaging routes ACME requests at Let's Encrypt's staging environment
// (unlimited rate, untrusted certs) — for use while WithAutoCert is under
// test.
func (c *Config) WithStaging() *Config {
	c.staging = true
	return c
}

// WithCertCacheDir overrides where autocert caches issued certificates on
// disk. Default "tls-certs".
func (c *Config) WithCertCacheDir(dir string) *Config {
	c.certCacheDir = dir
	return c
}

// WithMinVersion / WithMaxVersion override the negotiated TLS version
// bounds.
func (c *Config) WithMinVersion(v uint16) *Config { c.minVersion = v; return c }
func (c *Config) WithMaxVersion(v uint16) *Config { c.maxVersion = v; return c }

// WithClientAuth sets the client certificate authentication policy.
func (c *Config) WithClientAuth(a tls.ClientAuthType) *Config {
	c.clientAuth = a
	return c
}

// Build produces a *tls.Config ready to hand to Wrap/Listen.
func (c *Config) Build() (*tls.Config, error) {
	base := &tls.Config{
		MinVersion: c.minVersion,
		MaxVersion: c.maxVersion,
		NextProtos: c.nextProtos,
		ClientAuth: c.clientAuth,
	}

	switch {
	case c.autoCert:
		m := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(c.domains...),
			Cache:      autocert.DirCache(c.certCacheDir),
			Email:      c.email,
		}
		if c.staging {
			m.Client = &acme.Client{DirectoryURL: "https://acme-staging-v02.api.letsencrypt.org/directory"}
		}
		base.GetCertificate = m.GetCertificate
		base.NextProtos = append([]string{"acme-tls/1"}, base.NextProtos...)
		return base, nil

	case c.certFile != "" && c.keyFile != "":
		cert, err := tls.LoadX509KeyPair(c.certFile, c.keyFile)
		if err != nil {
			return nil, fmt.Errorf("tlsconfig: load cert pair: %w", err)
		}
		base.Certificates = []tls.Certificate{cert}
		return base, nil

	default:
		return nil, ErrNoCertSource
	}
}

// Listen binds addr and wraps the listener with TLS built from c.
func (c *Config) Listen(network, addr string) (net.Listener, error) {
	tlsCfg, err := c.Build()
	if err != nil {
		return nil, err
	}
	return tls.Listen(network, addr, tlsCfg)
}

// Wrap wraps an already-bound plaintext listener with TLS built from c —
// used when the Socket Listener component already opened the raw socket
// (so socket tuning in package socket is applied before the TLS handshake).
func (c *Config) Wrap(inner net.Listener) (net.Listener, error) {
	tlsCfg, err := c.Build()
	if err != nil {
		return nil, err
	}
	return tls.NewListener(inner, tlsCfg), nil
}

// DefaultHandshakeTimeout is a ten-second bound for a TLS client handshake.
// Wrap and Listen do not apply it, and nothing in this module reads it;
// crypto/tls.Conn.Handshake respects the underlying net.Conn's deadline,
// so a deadline set on the raw connection is what bounds a handshake.
const DefaultHandshakeTimeout = 10 * time.Second
