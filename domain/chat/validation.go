package chat

import (
	"chat-stomp/errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateUsername returns the trimmed username or ErrEmptyUsername.
func ValidateUsername(username string) (string, error) {
	trimmed := strings.TrimSpace(username)
	if err := validate.Var(trimmed, "required"); err != nil {
		return "", errors.ErrEmptyUsername
	}
	return trimmed, nil
}

// ValidateContent returns the trimmed content. Length is counted in runes,
// the way the server counts characters. maxLength <= 0 disables the cap.
func ValidateContent(content string, maxLength int) (string, error) {
	trimmed := strings.TrimSpace(content)
	if err := validate.Var(trimmed, "required"); err != nil {
		return "", errors.ErrEmptyMessage
	}
	if maxLength > 0 {
		if err := validate.Var(trimmed, "max="+strconv.Itoa(maxLength)); err != nil {
			return "", fmt.Errorf("%w (max %d characters)", errors.ErrContentTooLong, maxLength)
		}
	}
	return trimmed, nil
}
