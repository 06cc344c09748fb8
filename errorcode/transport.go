// transport.go
package errorcode

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"syscall"
)

// ClassifyTransportError maps an error returned by the transport onto a
// pseudo code. Cancellation is checked before timeouts because
// context.DeadlineExceeded also reports Timeout(); callers that need to tell
// a caller deadline apart from a transport timeout check their own ctx first.
func ClassifyTransportError(err error) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, context.Canceled) {
		return CodeCanceled
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return CodeNetworkTimeout
		}
		return CodeDNSFailure
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return CodeConnectionRefused
	}

	if isTLSError(err) {
		return CodeTLSFailure
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeNetworkTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeNetworkTimeout
	}

	return CodeNetworkError
}

func isTLSError(err error) bool {
	var (
		recordErr    tls.RecordHeaderError
		verifyErr    *tls.CertificateVerificationError
		authorityErr x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidErr   x509.CertificateInvalidError
	)
	return errors.As(err, &recordErr) ||
		errors.As(err, &verifyErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr)
}
