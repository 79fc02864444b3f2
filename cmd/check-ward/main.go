// check-ward resolves a coordinate against the configured boundary layers
// from the command line. Useful for sanity-checking a freshly downloaded
// dataset before pointing the server at it.
//
//	go run ./cmd/check-ward 8.4606 -12.2684
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/WardWatch/WW-Backend/internal/boundary"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env.local")

	if len(os.Args) != 3 {
		log.Fatalf("usage: %s <lat> <lng>", os.Args[0])
	}
	lat, err := strconv.ParseFloat(os.Args[1], 64)
	if err != nil {
		log.Fatalf("bad latitude %q", os.Args[1])
	}
	lng, err := strconv.ParseFloat(os.Args[2], 64)
	if err != nil {
		log.Fatalf("bad longitude %q", os.Args[2])
	}

	layers := boundary.LoadFromEnv()

	if ward := layers.FindWard(lat, lng); ward != nil {
		fmt.Printf("ward:     %s (%s)\n", ward.Name, ward.Region)
	} else {
		fmt.Println("ward:     no match")
	}
	if district := layers.FindDistrict(lat, lng); district != nil {
		fmt.Printf("district: %s (%s)\n", district.Name, district.Region)
	} else {
		fmt.Println("district: no match")
	}
}
