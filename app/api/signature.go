package api

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the webhook signature as "sha256=<hex>"
const SignatureHeader = "X-Aiverse-Signature"

// signatureMiddleware verifies the HMAC-SHA256 signature of the raw
// request body against the shared secret. It runs before validation and
// persistence; the body is restored for downstream handlers.
func signatureMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Failed to read request body",
			})
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		header := c.GetHeader(SignatureHeader)
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Missing signature",
			})
			c.Abort()
			return
		}

		if !verifySignature(secret, body, header) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid signature",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// verifySignature checks a "sha256=<hex>" signature over the body.
// hmac.Equal keeps the comparison constant-time.
func verifySignature(secret string, body []byte, header string) bool {
	provided, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}

	providedMAC, err := hex.DecodeString(provided)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)

	return hmac.Equal(providedMAC, mac.Sum(nil))
}
