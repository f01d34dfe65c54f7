package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicAttributes decorates the transaction started by nrgin with the
// request id and the admin subject, and reports handler errors.
func NewRelicAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		txn := nrgin.Transaction(c)
		if txn == nil {
			return
		}

		if rid := c.GetString(RequestIDKey); rid != "" {
			txn.AddAttribute("request_id", rid)
		}
		if sub := c.GetString(AdminSubjectKey); sub != "" {
			txn.AddAttribute("admin_subject", sub)
		}

		// Record error if present.
		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}
