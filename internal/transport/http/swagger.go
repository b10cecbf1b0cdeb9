package http

import (
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/ghodss/yaml"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/njprem/User_Hub_APP_BackEnd/internal/util"
)

// RegisterSwagger mounts the Swagger UI and the OpenAPI document it
// renders. The document is hand-maintained YAML under docs/ and is
// converted to JSON once, on first request.
func RegisterSwagger(e *echo.Echo) {
	var (
		once     sync.Once
		document []byte
		loadErr  error
	)
	e.GET("/swagger/doc.json", func(c echo.Context) error {
		once.Do(func() {
			raw, err := os.ReadFile(filepath.Join("docs", "swagger.yaml"))
			if err != nil {
				loadErr = err
				return
			}
			document, loadErr = yaml.YAMLToJSON(raw)
		})
		if loadErr != nil {
			c.Logger().Errorf("swagger document: %v", loadErr)
			return c.JSON(http.StatusInternalServerError, util.Error("api documentation unavailable"))
		}
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, document)
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)
}
