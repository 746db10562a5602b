// Command generate_data writes sample collection exports and their mapping
// for trying a run against the file source and a local index store:
//
//	go run ./benchmarks -o benchmarks/data -n 5000
//	esmrebuild -y -R -M -P -n file://benchmarks/index -i shop -d products \
//	    -p benchmarks/data/mappings --source file -H benchmarks/data
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"esmrebuild/formats"

	"github.com/alecthomas/kong"
	"github.com/bytedance/sonic"
	"github.com/hashicorp/go-msgpack/codec"
)

type Product struct {
	ID          string   `json:"_id" codec:"_id"`
	Name        string   `json:"name" codec:"name"`
	Description string   `json:"description" codec:"description"`
	Price       float64  `json:"price" codec:"price"`
	Category    string   `json:"category" codec:"category"`
	Tags        []string `json:"tags" codec:"tags"`
	InStock     bool     `json:"inStock" codec:"inStock"`
}

const productsMapping = `{
  "products": {
    "properties": {
      "name": {"type": "text"},
      "description": {"type": "text"},
      "price": {"type": "double"},
      "category": {"type": "keyword"},
      "tags": {"type": "keyword"},
      "inStock": {"type": "boolean"}
    }
  }
}
`

var (
	categories = []string{"Electronics", "Clothing", "Books", "Home & Garden", "Sports", "Toys"}

	productNames = []string{
		"Laptop", "Computer", "Smartphone", "Tablet", "Headphones",
		"T-Shirt", "Jeans", "Sneakers", "Jacket", "Hat",
		"Novel", "Textbook", "Magazine", "Comic", "Dictionary",
		"Chair", "Table", "Lamp", "Plant", "Curtains",
	}

	adjectives = []string{
		"Premium", "Professional", "Deluxe", "Standard", "Basic",
		"Wireless", "Portable", "Compact", "Ergonomic", "Modern",
	}

	tags = []string{
		"sale", "new", "popular", "trending", "bestseller",
		"eco-friendly", "premium", "budget", "featured", "clearance",
	}
)

var CLI struct {
	Output  string `short:"o" default:"benchmarks/data" help:"Output directory"`
	Count   int    `short:"n" default:"1000" help:"Number of products"`
	Msgpack bool   `help:"Write products.msgpack instead of products.jsonl"`
	Seed    int64  `default:"1" help:"Random seed"`
}

func randomString(r *rand.Rand, arr []string) string {
	return arr[r.Intn(len(arr))]
}

func randomTags(r *rand.Rand) []string {
	count := r.Intn(3) + 1
	result := make([]string, 0, count)
	used := make(map[string]bool)

	for range count {
		tag := randomString(r, tags)
		if !used[tag] {
			result = append(result, tag)
			used[tag] = true
		}
	}

	return result
}

func generateProduct(r *rand.Rand, id int) Product {
	return Product{
		ID:          fmt.Sprintf("p%07d", id),
		Name:        fmt.Sprintf("%s %s", randomString(r, adjectives), randomString(r, productNames)),
		Description: fmt.Sprintf("High-quality %s for all your needs.", randomString(r, productNames)),
		Price:       float64(r.Intn(500)+10) + r.Float64(),
		Category:    randomString(r, categories),
		Tags:        randomTags(r),
		InStock:     r.Float32() > 0.2,
	}
}

func writeJSONLines(path string, products []Product) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, p := range products {
		data, err := sonic.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshaling product %s: %w", p.ID, err)
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return w.Flush()
}

func writeMsgpack(path string, products []Product) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := codec.NewEncoder(w, formats.Handle()).Encode(products); err != nil {
		return fmt.Errorf("encoding products: %w", err)
	}
	return w.Flush()
}

func run() error {
	mappingDir := filepath.Join(CLI.Output, "mappings")
	if err := os.MkdirAll(mappingDir, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	r := rand.New(rand.NewSource(CLI.Seed))
	products := make([]Product, CLI.Count)
	for i := range products {
		products[i] = generateProduct(r, i+1)
	}

	path := filepath.Join(CLI.Output, "products.jsonl")
	write := writeJSONLines
	if CLI.Msgpack {
		path = filepath.Join(CLI.Output, "products.msgpack")
		write = writeMsgpack
	}

	fmt.Printf("Generating %d products to %s...\n", CLI.Count, path)
	if err := write(path, products); err != nil {
		return err
	}

	mappingPath := filepath.Join(mappingDir, "products.json")
	if err := os.WriteFile(mappingPath, []byte(productsMapping), 0644); err != nil {
		return fmt.Errorf("writing mapping: %w", err)
	}

	fmt.Printf("✓ Generated %s and %s\n", path, mappingPath)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("generate_data"),
		kong.Description("Generate sample product exports"),
	)
	ctx.FatalIfErrorf(run())
}
