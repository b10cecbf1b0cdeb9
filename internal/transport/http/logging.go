package http

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/njprem/User_Hub_APP_BackEnd/internal/domain"
)

const (
	contextRequestIDKey = "userhub.request_id"
	requestBodyLogKey   = "userhub.request.body"
	maxLoggedBody       = 2048
)

// Fields whose values never reach the log stream.
var redactedFields = map[string]bool{
	"password":         true,
	"current_password": true,
	"new_password":     true,
	"token":            true,
}

func registerLogging(e *echo.Echo) {
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(contextRequestIDKey, uuid.NewString())
			return next(c)
		}
	})

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			userID := "anonymous"
			if user, ok := c.Get(contextUserKey).(*domain.User); ok && user != nil {
				userID = strconvID(user.ID)
			}
			requestID, _ := c.Get(contextRequestIDKey).(string)

			payload := map[string]any{
				"time":       v.StartTime.Format(time.RFC3339),
				"request_id": requestID,
				"user_id":    userID,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
			}
			if body := c.Get(requestBodyLogKey); body != nil {
				payload["body"] = body
			}
			if v.Error != nil {
				payload["error"] = v.Error.Error()
			}

			buf, err := json.Marshal(payload)
			if err != nil {
				return err
			}
			log.Println(string(buf))
			return nil
		},
	}))

	e.Use(middleware.BodyDump(func(c echo.Context, reqBody, _ []byte) {
		if summary := sanitizeBody(reqBody); summary != nil {
			c.Set(requestBodyLogKey, summary)
		}
	}))
}

// sanitizeBody turns a JSON request body into a loggable value with
// credential fields redacted. Non-JSON and oversized bodies are dropped.
func sanitizeBody(body []byte) any {
	if len(body) == 0 || len(body) > maxLoggedBody {
		return nil
	}
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil
	}
	for key := range data {
		if redactedFields[strings.ToLower(key)] {
			data[key] = "[REDACTED]"
		}
	}
	return data
}

func strconvID(id int64) string {
	return strconv.FormatInt(id, 10)
}
