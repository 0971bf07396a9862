package security

import "errors"

var (
	errNoStore    = errors.New("trust-on-first-use requires a CertStore")
	errNoPeerCert = errors.New("server presented no certificate")
)
