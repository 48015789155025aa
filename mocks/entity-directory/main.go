// A stand-in for the business entity directory, for local development and
// end-to-end runs. Entities are seeded from a JSON file or fall back to a
// small built-in set; anything else is a 404.
//
// Usage:
//
//	go run . -addr :9090 -seed entities.json
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"strings"
)

type entity struct {
	ID            string `json:"id"`
	State         string `json:"state"`
	EntityType    string `json:"entity_type"`
	FormationDate string `json:"formation_date"`
}

var defaultEntities = []entity{
	{ID: "0b8f3d44-9a1e-4f4b-8d1a-111111111111", State: "DE", EntityType: "llc", FormationDate: "2020-01-15"},
	{ID: "0b8f3d44-9a1e-4f4b-8d1a-222222222222", State: "DE", EntityType: "corporation", FormationDate: "2019-06-30"},
	{ID: "0b8f3d44-9a1e-4f4b-8d1a-333333333333", State: "CA", EntityType: "llc", FormationDate: "2022-07-01"},
	{ID: "0b8f3d44-9a1e-4f4b-8d1a-444444444444", State: "NY", EntityType: "llc", FormationDate: "2021-02-28"},
	{ID: "0b8f3d44-9a1e-4f4b-8d1a-555555555555", State: "TX", EntityType: "llc", FormationDate: "2020-02-29"},
}

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	seed := flag.String("seed", "", "path to a JSON file of entities")
	flag.Parse()

	entities := make(map[string]entity)
	for _, e := range defaultEntities {
		entities[e.ID] = e
	}
	if *seed != "" {
		raw, err := os.ReadFile(*seed)
		if err != nil {
			log.Fatalf("read seed file: %v", err)
		}
		var seeded []entity
		if err := json.Unmarshal(raw, &seeded); err != nil {
			log.Fatalf("parse seed file: %v", err)
		}
		for _, e := range seeded {
			entities[e.ID] = e
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /entities/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := strings.ToLower(r.PathValue("id"))
		e, ok := entities[id]
		if !ok {
			http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(e)
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	log.Printf("entity directory listening on %s with %d entities", *addr, len(entities))
	log.Fatal(http.ListenAndServe(*addr, mux))
}
