// status.go
package errorcode

import (
	"fmt"
	"net/http"
)

var statusMessages = map[int]string{
	http.StatusOK:                            "Request successful.",
	http.StatusCreated:                       "Request to create or update resource successful.",
	http.StatusAccepted:                      "The request was accepted for processing, but the processing has not completed.",
	http.StatusNoContent:                     "Request successful. No content to send for this request.",
	http.StatusBadRequest:                    "Bad request. Verify the syntax of the request.",
	http.StatusUnauthorized:                  "Authentication failed. Verify the credentials being used for the request.",
	http.StatusPaymentRequired:               "Payment required. Access to the requested resource requires payment.",
	http.StatusForbidden:                     "Invalid permissions. Verify the account has the proper permissions for the resource.",
	http.StatusNotFound:                      "Resource not found. Verify the URL path is correct.",
	http.StatusMethodNotAllowed:              "Method not allowed. The method specified is not allowed for the resource.",
	http.StatusNotAcceptable:                 "Not acceptable. The server cannot produce a response matching the list of acceptable values.",
	http.StatusProxyAuthRequired:             "Proxy authentication required. You must authenticate with a proxy server before this request can be served.",
	http.StatusRequestTimeout:                "Request timeout. The server timed out waiting for the request.",
	http.StatusConflict:                      "Conflict. The request could not be processed because of conflict in the request.",
	http.StatusGone:                          "Gone. The resource requested is no longer available and will not be available again.",
	http.StatusLengthRequired:                "Length required. The request did not specify the length of its content, which is required by the requested resource.",
	http.StatusPreconditionFailed:            "Precondition failed. The server does not meet one of the preconditions specified in the request.",
	http.StatusRequestEntityTooLarge:         "Payload too large. The request is larger than the server is willing or able to process.",
	http.StatusRequestURITooLong:             "Request-URI too long. The URI provided was too long for the server to process.",
	http.StatusUnsupportedMediaType:          "Unsupported media type. The request entity has a media type which the server or resource does not support.",
	http.StatusRequestedRangeNotSatisfiable:  "Requested range not satisfiable. The client has asked for a portion of the file, but the server cannot supply that portion.",
	http.StatusExpectationFailed:             "Expectation failed. The server cannot meet the requirements of the Expect request-header field.",
	http.StatusUnprocessableEntity:           "Unprocessable entity. The server understands the content type and syntax of the request but was unable to process the contained instructions.",
	http.StatusLocked:                        "Locked. The resource that is being accessed is locked.",
	http.StatusFailedDependency:              "Failed dependency. The request failed because it depended on another request and that request failed.",
	http.StatusUpgradeRequired:               "Upgrade required. The client should switch to a different protocol.",
	http.StatusPreconditionRequired:          "Precondition required. The server requires that the request be conditional.",
	http.StatusTooManyRequests:               "Too many requests. The user has sent too many requests in a given amount of time.",
	http.StatusRequestHeaderFieldsTooLarge:   "Request header fields too large. The server is unwilling to process the request because its header fields are too large.",
	http.StatusUnavailableForLegalReasons:    "Unavailable for legal reasons. The server is denying access to the resource as a consequence of a legal demand.",
	http.StatusInternalServerError:           "Internal server error. The server encountered an unexpected condition that prevented it from fulfilling the request.",
	http.StatusNotImplemented:                "Not implemented. The server does not support the functionality required to fulfill the request.",
	http.StatusBadGateway:                    "Bad gateway. The server received an invalid response from the upstream server while trying to fulfill the request.",
	http.StatusServiceUnavailable:            "Service unavailable. The server is currently unable to handle the request due to temporary overloading or maintenance.",
	http.StatusGatewayTimeout:                "Gateway timeout. The server did not receive a timely response from the upstream server.",
	http.StatusHTTPVersionNotSupported:       "HTTP version not supported. The server does not support the HTTP protocol version used in the request.",
	http.StatusNetworkAuthenticationRequired: "Network authentication required. The client needs to authenticate to gain network access.",
}

// TranslateStatusCode provides a human-readable message for HTTP status codes.
func TranslateStatusCode(statusCode int) string {
	if statusCode == 0 {
		return "No status code received, possible network or connection error."
	}
	if message, exists := statusMessages[statusCode]; exists {
		return message
	}
	return fmt.Sprintf("Unknown status code: %d", statusCode)
}

// IsHTTPStatus reports whether code lies in the HTTP status range.
func IsHTTPStatus(code int) bool {
	return code >= 100 && code <= 599
}

// IsSuccessStatus reports whether statusCode is 2xx.
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
