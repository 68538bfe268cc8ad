// Command manodiag-server exposes the diagram pipeline over HTTP: parse
// text into a structural diagram, render it into a positioned scene
// snapshot, and reset the persisted manual layout.
package main

import (
	"log"
	"os"
	"sync"

	"github.com/gofiber/fiber/v3"

	"manodiag/engine"
	"manodiag/parser"
	"manodiag/store"
)

func main() {
	addr := os.Getenv("MANODIAG_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	positions := os.Getenv("MANODIAG_POSITIONS")
	if positions == "" {
		positions = "manodiag_positions.json"
	}

	st := store.Open(positions, nil)
	eng := engine.New(st, nil)

	// The engine renders into one shared scene; serialize requests.
	var mu sync.Mutex

	app := fiber.New(fiber.Config{AppName: "manodiag-server"})

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.SendString("ok")
	})

	p := parser.New(nil)
	app.Post("/parse", func(c fiber.Ctx) error {
		return c.JSON(p.Parse(string(c.Body())))
	})

	app.Post("/render", func(c fiber.Ctx) error {
		mu.Lock()
		defer mu.Unlock()
		eng.RenderText(string(c.Body()))
		return c.JSON(eng.Snapshot())
	})

	app.Delete("/layout", func(c fiber.Ctx) error {
		mu.Lock()
		defer mu.Unlock()
		eng.ResetLayout()
		return c.SendStatus(fiber.StatusNoContent)
	})

	log.Printf("manodiag-server listening on %s (positions: %s)", addr, positions)
	log.Fatal(app.Listen(addr))
}
