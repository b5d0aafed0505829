package rag

import "github.com/gin-gonic/gin"

const serviceKey = "rag"

// Use este middleware no setup do gin
func SetServiceToContext(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(serviceKey, service)
		c.Next()
	}
}

func ServiceInstance(c *gin.Context) *Service {
	v, ok := c.Get(serviceKey)
	if !ok {
		return nil
	}
	service, _ := v.(*Service)
	return service
}
