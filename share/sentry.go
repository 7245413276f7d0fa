package share

import (
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// InitSentry enables error reporting. An empty dsn leaves the sentry client disabled,
// so CaptureError only logs.
func InitSentry(dsn string, release string) error {
	err := sentry.Init(
		sentry.ClientOptions{
			Dsn:           dsn,
			Release:       release,
			HTTPTransport: new(http.Transport),
		},
	)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func FlushSentry() {
	sentry.Flush(2 * time.Second)
}

// CaptureError logs err with its stack and forwards it to sentry.
func CaptureError(err error, fields ...zap.Field) {
	if err == nil {
		return
	}

	sentry.CaptureException(err)
	zap.L().Error(err.Error(), append(fields, zap.String("stack", fmt.Sprintf("%+v", err)))...)
}
