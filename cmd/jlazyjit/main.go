// jlazyjit drives descriptor parsing, symbol mangling, resolution and
// stub materialization over a toy classfile format and a toy IR backend,
// the way a real JIT's compile-on-first-call path would, without a real
// code generator behind it (spec.md's Non-goals exclude one).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/chazu/jlazylink/pkg/classmodel"
	"github.com/chazu/jlazylink/pkg/ir"
	"github.com/chazu/jlazylink/pkg/jitconfig"
	"github.com/chazu/jlazylink/pkg/materialize"
	"github.com/chazu/jlazylink/pkg/remoteclass"
	"github.com/chazu/jlazylink/pkg/stubcache"
	"github.com/chazu/jlazylink/pkg/trampoline/gen"
)

func main() {
	configDir := flag.String("config", ".", "directory to search for jlazylink.toml")
	classFile := flag.String("load", "", "path to a .jcls toy classfile to register before materializing")
	symbol := flag.String("symbol", "", "mangled symbol to materialize (see pkg/mangle)")
	emitGo := flag.Bool("emit-go", false, "render the materialized trampoline as Go source for inspection")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: jlazyjit -symbol <mangled-symbol> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  jlazyjit -load Util.jcls -symbol 'Static Call to com/example/Util.max:(II)I'\n")
		fmt.Fprintf(os.Stderr, "  jlazyjit -load Util.jcls -symbol 'Static Call to com/example/Util.max:(II)I' -emit-go\n")
	}
	flag.Parse()

	if *symbol == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := jitconfig.FindAndLoad(*configDir)
	if err != nil {
		log.Fatalf("jlazyjit: load config: %v", err)
	}

	var sources []classmodel.ClassSource
	for _, dir := range cfg.ClasspathDirPaths() {
		sources = append(sources, dirClassSource{dir: dir})
	}
	if cfg.Classpath.RemoteURL != "" {
		log.Printf("jlazyjit: falling back to remote classpath at %s", cfg.Classpath.RemoteURL)
		sources = append(sources, remoteclass.New(cfg.Classpath.RemoteURL))
	}

	loader := classmodel.New(toyClassFileParser{}, sources...)

	if *classFile != "" {
		data, err := os.ReadFile(*classFile)
		if err != nil {
			log.Fatalf("jlazyjit: read %s: %v", *classFile, err)
		}
		co, err := loader.AddClassBytes(data)
		if err != nil {
			log.Fatalf("jlazyjit: register %s: %v", *classFile, err)
		}
		log.Printf("jlazyjit: registered class %s", co.Name)
	}

	cache, err := stubcache.Open(cfg.Cache.Dir, cfg.Cache.SQLitePath)
	if err != nil {
		log.Fatalf("jlazyjit: open stub cache: %v", err)
	}
	defer cache.Close()

	stubs := materialize.NewInMemoryStubsManager()
	callbacks := materialize.NewInMemoryCallbackManager()
	materializer := materialize.New(loader, stubs, callbacks, cache)

	builder := ir.NewToyBuilder()

	callerAddr, err := materializer.Bind(builder, *symbol)
	if err != nil {
		log.Fatalf("jlazyjit: bind %s: %v", *symbol, err)
	}
	log.Printf("jlazyjit: %s bound to stub at 0x%x", *symbol, callerAddr)

	var patchedTo uintptr
	materializer.PatchCaller(*symbol, func(realPtr uintptr) {
		patchedTo = realPtr
		log.Printf("jlazyjit: caller patched to 0x%x", realPtr)
	})

	if err := callbacks.Dispatch(callerAddr, *symbol); err != nil {
		log.Fatalf("jlazyjit: materialize %s: %v", *symbol, err)
	}
	if patchedTo == 0 {
		log.Fatalf("jlazyjit: materialize %s: caller was never patched", *symbol)
	}
	log.Printf("jlazyjit: %s materialized, %d instructions emitted", *symbol, len(builder.Instrs))

	if *emitGo {
		src, err := gen.RenderTrampolineSource(trampolineFuncName(*symbol), builder.Instrs)
		if err != nil {
			log.Fatalf("jlazyjit: render trampoline: %v", err)
		}
		fmt.Print(src)
	}
}

func trampolineFuncName(symbol string) string {
	name := []byte("trampoline_")
	for _, r := range symbol {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			name = append(name, byte(r))
		} else {
			name = append(name, '_')
		}
	}
	return string(name)
}
