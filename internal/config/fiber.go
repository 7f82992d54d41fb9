package config

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
)

func NewFiber() *fiber.App {
	app := fiber.New(fiber.Config{
		Prefork:               false,
		AppName:               "",
		BodyLimit:             1 * 1024 * 1024, // 1MB, role payloads are small
		ReadBufferSize:        4096,
		WriteBufferSize:       4096,
		Concurrency:           256 * 1024,
		IdleTimeout:           30 * time.Second,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		DisableKeepalive:      false,
		DisableStartupMessage: true,
		ReduceMemoryUsage:     true,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
	})

	return app
}
