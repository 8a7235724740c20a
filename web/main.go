package main

import (
	"cmp"
	"errors"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/df07/go-sphere-raytracer/pkg/output"
	"github.com/df07/go-sphere-raytracer/web/server"
)

func main() {
	if err := godotenv.Load(filepath.Join(cmp.Or(os.Getenv("RAYTRACER_ROOT_DIR"), "."), ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	scenesDir := flag.String("scenes", cmp.Or(os.Getenv("RAYTRACER_SCENES_DIR"), "scenes"), "Directory containing JSON scene files")
	flag.Parse()

	// Create and start web server
	webServer := server.NewServer(*port, *scenesDir)

	s3Config := output.S3ConfigFromEnv()
	if s3Config.Enabled() {
		publisher, err := output.NewS3Publisher(s3Config)
		if err != nil {
			log.Printf("Error configuring S3 publisher: %v", err)
			os.Exit(1)
		}
		webServer.SetPublisher(publisher)
		log.Printf("Publishing renders to bucket %s", s3Config.Bucket)
	}

	log.Printf("Sphere Raytracer Web Server")
	log.Printf("Visit http://localhost:%d to start rendering", *port)

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}

