package codesign

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os/exec"
	"time"
)

// ShellProbe shells out to the platform's code-signature verification
// tool to extract a file's signing chain. Signing-certificate verification
// internals are specified as a capability, not reimplemented (spec §1);
// this is the thinnest possible bridge to that capability.
type ShellProbe struct {
	// Binary is the tool invoked, overridable for tests. Defaults to
	// "codesign" with arguments that dump the PEM certificate chain.
	Binary string
	Args   func(path string) []string
	Timeout time.Duration
}

func NewShellProbe() *ShellProbe {
	return &ShellProbe{
		Binary: "codesign",
		Args: func(path string) []string {
			return []string{"-dvvv", "--display", "-r-", path}
		},
		Timeout: 5 * time.Second,
	}
}

func (p *ShellProbe) Chain(path string) ([]Certificate, error) {
	timeout := p.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.Binary, p.Args(path)...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		// Unsigned binaries make codesign exit non-zero; that is not a
		// probe failure, it is "no chain".
		return nil, nil
	}

	return parsePEMChain(out.Bytes())
}

func parsePEMChain(data []byte) ([]Certificate, error) {
	var chain []Certificate
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse certificate: %w", err)
		}
		sum := sha256.Sum256(cert.Raw)
		chain = append(chain, Certificate{
			SHA256:     hex.EncodeToString(sum[:]),
			CommonName: cert.Subject.CommonName,
			Raw:        cert,
		})
	}
	return chain, nil
}

// BootstrapSelf invokes the probe once against the daemon's own binary at
// startup. This purely exists to trigger a known OS cross-service
// bootstrap the platform requires before the first real probe — spec §4.3
// calls this out explicitly as a workaround that reimplementations must
// preserve, even though the result is discarded.
func BootstrapSelf(p Probe, selfPath string) {
	_, _ = p.Chain(selfPath)
}
