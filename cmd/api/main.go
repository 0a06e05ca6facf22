// @title						Monitoreo Bovinos IA API
// @version					1.0.0
// @description				Backend de monitoreo de bovinos: fincas, bovinos, mediciones e imágenes.
// @BasePath					/api/v1
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile string
	envFiles   []string
)

var rootCmd = &cobra.Command{
	Use:   "bovinos-api",
	Short: "Backend de monitoreo de bovinos",
	Long: `API REST para registrar fincas, bovinos y sus mediciones morfométricas.
Persiste en Supabase, Postgres o en memoria según la configuración.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "archivo TOML de configuración")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "archivos .env a cargar antes de leer el entorno")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
