// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"os"
	"strings"
	"syscall"

	"github.com/unixdj/cqr"
	"github.com/unixdj/cqr/coding"

	"github.com/klauspost/compress/zstd"
	"github.com/mattn/go-isatty"
	"github.com/pborman/getopt/v2"
)

var g = struct {
	scale    int            // module size in pixels
	border   int            // quiet zone
	channels int            // colour channels
	fn       string         // filename
	lev      cqr.Level      // correction level
	ver      coding.Version // minimal version
	format   int            // output file format
	decode   bool           // decode mode
	compress bool           // zstd payload
	latin1   bool           // Latin-1 byte mode
}{}

func printUsage(w io.Writer) {
	cl := getopt.CommandLine
	fmt.Fprint(w, "Multicolor QR code generator\nUsage: ",
		cl.Program(), " ", cl.UsageLine(), ` [string ...]
If no string is given, data is read from standard input and the final
newline is stripped.  With -d the argument is an image file to decode,
or standard input if none is given.

`)
	cl.PrintOptions(w)
}

type opt func()

func (opt) String() string                    { return "" }
func (o opt) Set(string, getopt.Option) error { o(); return nil }

func usage() {
	printUsage(os.Stderr)
	os.Exit(2)
}

func help() {
	printUsage(os.Stdout)
	os.Exit(0)
}

func version() {
	fmt.Println(`cqr version 0.1.0
Copyright (c) 2011 The Go Authors
Copyright (c) 2025 Vadim Vygonets`)
	os.Exit(0)
}

var formats = []string{"png", "ppm", "pbm", "utf8"}

var encoders = [...]func(*cqr.Code, io.Writer) error{
	func(c *cqr.Code, w io.Writer) error { return png.Encode(w, c.Image()) },
	(*cqr.Code).EncodePPM,
	(*cqr.Code).EncodePBM,
	func(c *cqr.Code, w io.Writer) error {
		_, err := fmt.Fprint(w, c)
		return err
	},
}

func parseFlags() {
	getopt.SetUsage(usage)
	getopt.Flag(opt(help), 'h', "show this help").SetFlag()
	getopt.Flag(opt(version), 'V', "print version and copyright").SetFlag()
	getopt.Flag(&g.decode, 'd', "decode an image instead of encoding")
	getopt.Flag(&g.compress, 'z',
		"compress the payload with zstd; with -d, decompress it")
	getopt.Flag(&g.latin1, '1', "convert input text to Latin-1")
	ch := getopt.Unsigned('c', 1, &getopt.UnsignedLimit{Base: 0, Bits: 4, Min: 1, Max: 4},
		"colour channels; the symbol uses 2^channels colours",
		"channels")
	ver := getopt.Unsigned('v', 1, &getopt.UnsignedLimit{Base: 0, Bits: 8, Min: 1, Max: 40},
		"minimal QR code version", "ver")
	lev := getopt.Enum('l',
		[]string{"l", "m", "q", "h", "L", "M", "Q", "H"}, "l",
		"error correction level, lowest to highest", "l|m|q|h")
	scale := getopt.Unsigned('s', 8, &getopt.UnsignedLimit{Base: 0, Bits: 15, Min: 1, Max: 1 << 14},
		`image pixels per QR module ("pixel"); ignored for type utf8`,
		"scale")
	getopt.Flag(&g.border, 'm', "quiet zone modules [4]", "margin")
	fno := getopt.Flag(&g.fn, 'o',
		`output file, or "-" for standard output`, "file")
	ff := getopt.Enum('t', formats, "", `output format, one of: `+
		strings.Join(formats, ", ")+
		`; pbm is monochrome and needs -c1; `+
		`if no -o is given and standard output is a TTY, `+
		`default is utf8, otherwise png`, "type")

	getopt.Parse()
	g.scale = int(*scale)
	g.channels = int(*ch)
	g.ver = coding.Version(*ver)
	g.lev = cqr.Level(strings.Index("lmqhLMQH", *lev) & 3)
	if !getopt.IsSet('m') {
		g.border = -1
	}
	if *ff == "" {
		if !fno.Seen() && isatty.IsTerminal(uintptr(syscall.Stdout)) {
			*ff = "utf8"
		} else {
			*ff = "png"
		}
	}
	for i, v := range formats {
		if *ff == v {
			g.format = i
			break
		}
	}
	if g.fn == "-" {
		g.fn = ""
	}
}

func main() {
	log.SetFlags(0)
	parseFlags()
	if g.decode {
		decode()
		return
	}

	var s string
	if args := getopt.Args(); len(args) != 0 {
		s = strings.Join(args, " ")
	} else {
		var b strings.Builder
		if _, err := io.Copy(&b, os.Stdin); err != nil {
			log.Fatalln(err)
		}
		s, _ = strings.CutSuffix(
			strings.ReplaceAll(b.String(), "\r\n", "\n"), "\n")
	}
	if g.latin1 {
		seg, err := coding.Segment{Text: s, Mode: coding.Latin1}.Transform()
		if err != nil {
			log.Fatalln(err)
		}
		s = seg.Text
	}
	data := []byte(s)
	if g.compress {
		var err error
		if data, err = compress(data); err != nil {
			log.Fatalln(err)
		}
	}

	c, err := cqr.EncodeVersion(data, g.lev, g.channels, g.ver)
	if err != nil {
		log.Fatalln(err)
	}
	write(c)
}

func write(c *cqr.Code) {
	var w = os.Stdout
	if g.fn != "" {
		var err error
		if w, err = os.OpenFile(g.fn, os.O_WRONLY|os.O_CREATE|os.O_TRUNC,
			0666); err != nil {
			log.Fatalln(err)
		}
	}
	c.Scale = g.scale
	if g.border >= 0 {
		c.Border = g.border
	}
	err := encoders[g.format](c, w)
	if g.fn != "" && err == nil {
		err = w.Close()
	}
	if err != nil {
		log.Fatalln(err)
	}
}

func compress(data []byte) ([]byte, error) {
	var b bytes.Buffer
	enc, err := zstd.NewWriter(&b)
	if err != nil {
		return nil, err
	}
	if _, err = enc.Write(data); err != nil {
		enc.Close()
		return nil, err
	}
	if err = enc.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}

func decode() {
	var r = os.Stdin
	if args := getopt.Args(); len(args) != 0 {
		var err error
		if r, err = os.Open(args[0]); err != nil {
			log.Fatalln(err)
		}
		defer r.Close()
	}
	img, _, err := image.Decode(r)
	if err != nil {
		log.Fatalln(err)
	}
	c, err := sample(img)
	if err != nil {
		log.Fatalln(err)
	}
	data, err := cqr.Decode(c)
	if err != nil {
		log.Fatalln(err)
	}
	if g.compress {
		if data, err = decompress(data); err != nil {
			log.Fatalln(err)
		}
	}
	var w = os.Stdout
	if g.fn != "" {
		if w, err = os.OpenFile(g.fn, os.O_WRONLY|os.O_CREATE|os.O_TRUNC,
			0666); err != nil {
			log.Fatalln(err)
		}
	}
	if _, err = w.Write(data); err == nil && g.fn != "" {
		err = w.Close()
	}
	if err != nil {
		log.Fatalln(err)
	}
}

// sample locates the symbol in an undistorted image and samples its
// module grid.  The quiet zone is found by walking the diagonal to the
// first dark pixel, and the module size is the width of the top left
// position box divided by seven.
func sample(img image.Image) (*cqr.Code, error) {
	b := img.Bounds()
	if b.Dx() != b.Dy() {
		return nil, fmt.Errorf("cqr: %dx%d: image not square",
			b.Dx(), b.Dy())
	}
	var cl cqr.Classifier
	wid := b.Dx()
	at := func(x, y int) color.Color {
		return img.At(b.Min.X+x, b.Min.Y+y)
	}
	off := 0
	for off < wid/2 && !cl.Dark(at(off, off)) {
		off++
	}
	run := 0
	for off+run < wid && cl.Dark(at(off+run, off)) {
		run++
	}
	if off == wid/2 || run < 7 || run%7 != 0 || (wid-2*off)%(run/7) != 0 {
		return nil, fmt.Errorf("cqr: no symbol found")
	}
	scale := run / 7
	siz := (wid - 2*off) / scale
	if _, err := coding.VersionForSize(siz); err != nil {
		return nil, err
	}
	mod := func(x, y int) color.Color {
		return at(off+x*scale+scale/2, off+y*scale+scale/2)
	}

	// The channel count is needed to choose a palette.  The dark
	// module and the meta block are monochrome, read them first.
	bw := coding.NewCode(siz)
	for y := 0; y < siz; y++ {
		for x := 0; x < siz; x++ {
			if cl.Dark(mod(x, y)) {
				bw.Set(x, y)
			}
		}
	}
	channels := 1
	if !bw.Black(8, siz-8) {
		var err error
		if channels, _, err = bw.ReadMeta(); err != nil {
			return nil, err
		}
	}

	c := cqr.NewCode(siz, channels)
	cl.Palette = cqr.PaletteFor(channels)
	for y := 0; y < siz; y++ {
		for x := 0; x < siz; x++ {
			n, err := cl.Classify(mod(x, y))
			if err != nil {
				return nil, fmt.Errorf(
					"%w at module %d, %d", err, x, y)
			}
			c.Pix[y*siz+x] = byte(n)
		}
	}
	c.Scale, c.Border = scale, off/scale
	return c, nil
}
