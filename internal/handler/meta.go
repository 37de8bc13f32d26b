package handler

import (
	"context"
	"net/http"
	"time"
)

const healthCheckTimeout = 3 * time.Second

func (h *Handler) GetMetadata(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "获取元数据成功", map[string]any{
		"version": h.config.Metadata.Version,
		"debug":   h.config.Metadata.Debug,
	})
}

func (h *Handler) RobotsTxt(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("User-agent: *\nDisallow: /\n"))
}

// Health 依次检查各个依赖，任何一个失败都返回 503
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	if !healthy {
		h.writeJSON(w, r, http.StatusServiceUnavailable, Response{
			Success: false,
			Message: "部分依赖不可用",
			Data:    status,
		})
		return
	}

	h.successResponse(w, r, "服务正常", status)
}
