// Package response funnels every JSON reply through the shared webapi
// envelope so handlers report results and failures uniformly.
package response

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

type apiError struct {
	code    uint32
	message string
}

func (e apiError) Error() string {
	return e.message
}

func (e apiError) Code() uint32 {
	return e.code
}

// Success wraps data in the envelope with a zero code.
func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Error reports an application error code. The HTTP status stays 200;
// clients read the envelope code instead.
func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, 200, apiError{code: uint32(code), message: message})
}
