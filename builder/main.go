package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Cores para o terminal (ANSI)
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

func main() {
	outDir := flag.String("out", "bin", "Pasta de saída")
	debug := flag.Bool("debug", false, "Compilar com a tag debug (asserts viram panic)")
	test := flag.Bool("test", false, "Rodar os testes antes de compilar")
	flag.Parse()

	fmt.Println(ColorCyan + "╔══════════════════════════════════════╗" + ColorReset)
	fmt.Println(ColorCyan + "║       VoxelStream Native Builder     ║" + ColorReset)
	fmt.Println(ColorCyan + "╚══════════════════════════════════════╝" + ColorReset)

	start := time.Now()

	// 1. Configurar Ambiente
	setupEnvironment()

	// 2. Testes
	if *test {
		if err := runGo("TESTES", []string{"test", "./shared/...", "./cliente/..."}, true); err != nil {
			fatal(err)
		}
	}

	// 3. Compilar Cliente
	ldflags := "-s -w"
	if runtime.GOOS == "windows" {
		ldflags = "-extldflags=-static -s -w -H=windowsgui"
	}
	output := filepath.Join(*outDir, binaryName("voxelstream"))
	args := []string{"build", "-ldflags", ldflags, "-o", output}
	if *debug {
		args = append(args, "-tags", "debug")
	}
	args = append(args, "./cliente")
	if err := runGo("CLIENTE (CGO + GUI)", args, true); err != nil {
		fatal(err)
	}
	fmt.Printf(ColorGreen+"  - Cliente compilado com sucesso -> %s"+ColorReset+"\n", output)

	fmt.Printf("\n"+ColorCyan+"Build finalizada com sucesso em %v!"+ColorReset+"\n", time.Since(start).Round(time.Second))
	fmt.Println(ColorYellow + "Dica: use -headless -ticks 600 para uma rodada sem janela." + ColorReset)
}

func setupEnvironment() {
	fmt.Println(ColorYellow + "\n[0] Configurando ambiente de compilação..." + ColorReset)

	// Adicionar MSYS2 ao PATH se estiver no Windows
	if runtime.GOOS == "windows" {
		msysPath := `C:\msys64\mingw64\bin`
		currentPath := os.Getenv("PATH")
		if !strings.Contains(currentPath, msysPath) {
			os.Setenv("PATH", msysPath+";"+currentPath)
			fmt.Printf("  - PATH atualizado: %s adicionado.\n", msysPath)
		}
		os.Setenv("CC", "gcc")
		fmt.Println("  - Compilador C: gcc (MSYS2)")
	}
}

func binaryName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// runGo roda o comando go com a saída no terminal. raylib exige CGO.
func runGo(name string, args []string, useCgo bool) error {
	fmt.Printf(ColorYellow+"\n[+] %s..."+ColorReset+"\n", name)

	cgoValue := "0"
	if useCgo {
		cgoValue = "1"
	}
	os.Setenv("CGO_ENABLED", cgoValue)

	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("falha em %s: %v", name, err)
	}
	return nil
}

func fatal(err error) {
	fmt.Printf("\n"+ColorRed+"[ERRO FATAL] %v"+ColorReset+"\n", err)
	os.Exit(1)
}
