package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"pose-records/internal/records"
)

func dumpFile(w io.Writer, path string) (int, error) {
	recs, err := records.ReadFile(path)
	if err != nil {
		return 0, err
	}
	for i, rec := range recs {
		fmt.Fprintf(w, "  [%d] %s %dx%dx%d center=(%d,%d) scale=%g x=%v y=%v v=%v image=%dB\n",
			i, rec.Filename, rec.Width, rec.Height, rec.Depth, rec.CenterX, rec.CenterY, rec.Scale,
			rec.PartsX, rec.PartsY, rec.PartsV, len(rec.Image))
	}
	return len(recs), nil
}

func main() {
	dump := flag.Bool("dump", false, "print the non-image fields of every record")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-dump] file...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	total := 0
	var errs []error
	for _, path := range flag.Args() {
		var n int
		var err error
		if *dump {
			fmt.Printf("%s\n", path)
			n, err = dumpFile(os.Stdout, path)
		} else {
			n, err = records.CountFile(path)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		fmt.Printf("%s: %d records\n", path, n)
		total += n
	}
	fmt.Printf("total: %d records\n", total)

	if err := errors.Join(errs...); err != nil {
		log.Fatal(err)
	}
}
