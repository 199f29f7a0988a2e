package cli

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tikzkit/tikzkit/pkg/buildinfo"
)

// toolCheck describes one external dependency probed by doctor.
type toolCheck struct {
	name     string
	binary   string
	purpose  string
	required bool
}

// doctorCommand creates the doctor command, which checks that the
// external toolchain is available.
func (c *CLI) doctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the external toolchain",
		Long: `Doctor verifies that the external programs tikzkit depends on are
installed and on PATH: the LaTeX compiler and the ImageMagick-compatible
converter used for raster output. PDF and JPEG conversion run in-process
and need no external binary.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(StyleTitle.Render(appName))
			for _, line := range strings.Split(buildinfo.String(), "\n") {
				printDetail("%s", line)
			}

			checks := []toolCheck{
				{name: "LaTeX compiler", binary: c.Config.Compiler, purpose: "compiles the assembled document", required: true},
				{name: "ImageMagick", binary: c.Config.ImageMagick, purpose: "rasterizes PDF pages to PNG during compilation", required: false},
			}

			healthy := true
			for _, check := range checks {
				path, err := exec.LookPath(check.binary)
				switch {
				case err == nil:
					printSuccess("%s: %s", check.name, path)
				case check.required:
					healthy = false
					printError("%s: %q not found", check.name, check.binary)
					printDetail("%s", check.purpose)
				default:
					printWarning("%s: %q not found (raster formats will fail)", check.name, check.binary)
					printDetail("%s", check.purpose)
				}
			}

			if !healthy {
				printNextStep("Install a TeX distribution, e.g.", "apt install texlive-latex-extra")
			}
			return nil
		},
	}
}
