package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jjweiting/hackthon001/pkg/errors"
)

// Response is the envelope of every control API reply.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

const (
	CodeSuccess       = apperrors.CodeSuccess
	CodeInvalidParams = apperrors.CodeInvalidParams
	CodeNotInRoom     = apperrors.CodeNotInRoom
	CodeServerError   = apperrors.CodeServerError
)

var codeMessages = map[int]string{
	CodeSuccess:       "success",
	CodeInvalidParams: apperrors.ErrInvalidParams.Message,
	CodeNotInRoom:     apperrors.ErrNotInRoom.Message,
	CodeServerError:   apperrors.ErrServerError.Message,
}

// Success 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error replies with the stock message of code.
func Error(c *gin.Context, code int) {
	message := codeMessages[code]
	if message == "" {
		message = "unknown error"
	}
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

func ErrorWithMsg(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// ErrorFromAppError replies with the code and message carried by err.
func ErrorFromAppError(c *gin.Context, err error) {
	c.JSON(http.StatusOK, Response{
		Code:    apperrors.GetCode(err),
		Message: apperrors.GetMessage(err),
		Data:    nil,
	})
}
