package blobio_test

import (
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/blobio"
	"github.com/hupe1980/blobio/blobstore"
)

func Example() {
	ctx := context.Background()
	reg := blobstore.NewRegistry(blobstore.NewMemoryStore())
	defer reg.Close()

	d, err := reg.Register(ctx, "greeting.txt")
	if err != nil {
		panic(err)
	}

	w, err := blobio.Open(ctx, reg, d, blobio.ModeWrite)
	if err != nil {
		panic(err)
	}
	w.Puts("Hello world!\n")
	if err := w.Close(); err != nil {
		panic(err)
	}

	a, _ := blobio.Open(ctx, reg, d, blobio.ModeAppend)
	fmt.Fprintln(a, "Bye.")
	_ = a.Close()

	r, _ := blobio.Open(ctx, reg, d, blobio.ModeRead)
	defer r.Close()

	line := make([]byte, 64)
	fmt.Printf("%q\n", r.Gets(line))

	rest, _ := io.ReadAll(r)
	fmt.Printf("%q\n", rest)
	fmt.Println(r.EOF())
	// Output:
	// "Hello world!\n"
	// "Bye.\n"
	// true
}

func ExampleParseMode() {
	m, err := blobio.ParseMode("a+")
	if err != nil {
		panic(err)
	}
	fmt.Println(m)
	// Output: a+
}
