// This file is part of lirjit - https://github.com/lirjit/lirjit
//
// Copyright 2024 The lirjit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/lirjit/lirjit/driver"
)

var (
	verbose   bool
	optimize  bool
	softfloat bool
	execFrag  string
	stkskip   = driver.NewOptionalInt(100)
	random    = driver.NewOptionalInt(100)
)

func atExit(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%+v\n", err)
	os.Exit(1)
}

func showAndExit() bool {
	switch {
	case showArch:
		fmt.Println(driver.ShowArch())
	case showWordSize:
		fmt.Println(driver.ShowWordSize())
	case showEndianness:
		fmt.Println(driver.ShowEndianness())
	case showFloat:
		fmt.Println(driver.ShowFloat())
	default:
		return false
	}
	return true
}

var (
	showArch       bool
	showWordSize   bool
	showEndianness bool
	showFloat      bool
)

func main() {
	var err error
	defer func() { atExit(err) }()

	flag.BoolVar(&verbose, "v", false, "print the writer pipeline's verbose trace to stderr")
	flag.BoolVar(&optimize, "optimize", true, "enable CSE and constant folding")
	flag.BoolVar(&softfloat, "softfloat", false, "rewrite floating point arithmetic into soft-float helper calls, for targets with no FP hardware")
	flag.StringVar(&execFrag, "execute", "main", "`name` of the fragment to run after loading")
	flag.Var(stkskip, "stkskip", "recurse `N`*512 int32 stack frames (default 100 if given bare) before executing")
	flag.Var(random, "random", "ignore any input file and execute a synthetic fragment of about `N` instructions (default 100 if given bare)")
	flag.BoolVar(&showArch, "show-arch", false, "print the host architecture and exit")
	flag.BoolVar(&showWordSize, "show-word-size", false, "print the native word size in bits and exit")
	flag.BoolVar(&showEndianness, "show-endianness", false, "print the host byte order and exit")
	flag.BoolVar(&showFloat, "show-float", false, "print the floating point representation and exit")
	flag.Parse()

	if showAndExit() {
		return
	}

	var randomPassed, stkskipPassed bool
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "random":
			randomPassed = true
		case "stkskip":
			stkskipPassed = true
		}
	})

	d, derr := driver.New()
	if derr != nil {
		err = derr
		return
	}
	d.Verbose = verbose
	d.Optimize = optimize
	d.SoftFloat = softfloat

	if randomPassed {
		n, _ := random.N()
		if err = d.LoadRandom(n, 1); err != nil {
			return
		}
		execFrag = "random"
	} else {
		args := flag.Args()
		if len(args) != 1 {
			err = errors.New("usage: lirasm [flags] <file.lir>")
			return
		}
		var f *os.File
		f, err = os.Open(args[0])
		if err != nil {
			return
		}
		defer f.Close()
		if err = d.Load(args[0], f); err != nil {
			return
		}
	}

	var skip int
	if stkskipPassed {
		skip, _ = stkskip.N()
	}

	if !verbose {
		var out string
		out, err = d.Execute(execFrag, skip)
		if err != nil {
			return
		}
		fmt.Println(out)
		return
	}

	var (
		out     string
		steps   int64
		elapsed time.Duration
	)
	out, steps, elapsed, err = d.ExecuteStats(execFrag, skip)
	if err != nil {
		return
	}
	fmt.Println(out)
	fmt.Fprintf(os.Stderr, "Executed %d steps in %v (%.3f MHz).\n", steps, elapsed,
		float64(steps)/float64(elapsed)*float64(time.Second)/1e6)
}
