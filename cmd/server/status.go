// Copyright 2025 TubeNote Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This file defines the unauthenticated status endpoint used by load
// balancer health checks and uptime probes.
package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatusRouter registers the health check endpoint. It sits outside the
// authenticated API group so probes need no user header.
func StatusRouter(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		if err := state.cloud.DB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": state.config.Application.Name,
		})
	})
}
