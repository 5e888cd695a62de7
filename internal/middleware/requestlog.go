package middleware

import (
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "go.uber.org/zap"
)

// RequestLogger logs one line per request: 5xx at Error, 4xx at Warn,
// everything else at Info.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURIPath:   true,
        LogRoutePath: true,
        LogStatus:    true,
        LogLatency:   true,
        LogRemoteIP:  true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            fields := []zap.Field{
                zap.String("method", v.Method),
                zap.String("path", v.URIPath),
                zap.String("route", v.RoutePath),
                zap.Int("status", v.Status),
                zap.Duration("latency", v.Latency),
                zap.String("remote_ip", v.RemoteIP),
                zap.String("staff_id", StaffID(c)),
            }
            if v.Error != nil {
                fields = append(fields, zap.Error(v.Error))
            }
            switch {
            case v.Status >= 500:
                log.Error("http_request", fields...)
            case v.Status >= 400:
                log.Warn("http_request", fields...)
            default:
                log.Info("http_request", fields...)
            }
            return nil
        },
    })
}
