// Command roterasolve runs a synthetic photogrammetry scene through
// rotera.OptimizeProject and reports the result. It does not read or write
// project files -- project serialization is a host-application concern, not
// part of the core -- so it exists to exercise and demonstrate the solver
// against a built-in fixture rather than to solve arbitrary user projects.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"go.viam.com/rotera/project"
	"go.viam.com/rotera/rotera"
)

func main() {
	app := &cli.App{
		Name:  "roterasolve",
		Usage: "run rotera's candidate orchestrator against a built-in demo scene",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "max-iterations", Value: 500, Usage: "outer LM iteration cap"},
			&cli.IntFlag{Name: "max-attempts", Value: 3, Usage: "candidate seeds to try"},
			&cli.BoolFlag{Name: "verbose", Usage: "enable debug logging"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool("verbose") {
		os.Setenv("ROTERA_VP_DEBUG", "1")
	}

	opts := rotera.DefaultSolveOptions()
	opts.MaxIterations = c.Int("max-iterations")
	opts.MaxAttempts = c.Int("max-attempts")
	opts.Verbose = c.Bool("verbose")

	proj := demoScene()
	result := rotera.OptimizeProject(proj, opts)

	fmt.Printf("converged=%v iterations=%d residual=%.6f quality=%s\n",
		result.Converged, result.Iterations, result.Residual, result.Quality)
	if result.HasReprojectionError {
		fmt.Printf("median reprojection error=%.4f px\n", result.MedianReprojectionError)
	}
	for _, cam := range result.Cameras {
		fmt.Printf("camera %q: position=%v\n", cam.Name, cam.Position)
	}
	for _, issue := range result.Issues {
		fmt.Printf("[%s] %s: %s\n", issue.Severity, issue.Code, issue.Message)
	}
	return nil
}

// demoScene builds the single-camera vanishing-point calibration fixture:
// one viewpoint looking at an origin-anchored axis tripod, observed through
// three fixed-length axis-aligned lines and two vanishing lines each along
// X and Z.
func demoScene() *project.Project {
	p := project.New()
	vp := p.AddViewpoint("cam")
	vp.ImageWidth, vp.ImageHeight = 1000, 800
	vp.IsPossiblyCropped = true
	vp.Intrinsics.PrincipalX, vp.Intrinsics.PrincipalY = 500, 400

	origin := p.AddWorldPoint("O")
	origin.LockAxis(project.AxisX, 0)
	origin.LockAxis(project.AxisY, 0)
	origin.LockAxis(project.AxisZ, 0)
	px := p.AddWorldPoint("X")
	py := p.AddWorldPoint("Y")
	pz := p.AddWorldPoint("Z")

	p.AddImagePoint(origin.ID, vp.ID, 500.000, 400.000)
	p.AddImagePoint(px.ID, vp.ID, 638.319, 380.022)
	p.AddImagePoint(py.ID, vp.ID, 523.678, 216.335)
	p.AddImagePoint(pz.ID, vp.ID, 409.091, 339.394)

	lineX := p.AddLine(origin.ID, px.ID)
	lineX.Direction = project.DirectionX
	lineX.SetTargetLength(10)
	lineY := p.AddLine(origin.ID, py.ID)
	lineY.Direction = project.DirectionY
	lineY.SetTargetLength(10)
	lineZ := p.AddLine(origin.ID, pz.ID)
	lineZ.Direction = project.DirectionZ
	lineZ.SetTargetLength(10)

	p.AddVanishingLine(vp.ID, project.AxisX, 500.000, 400.000, 638.319, 380.022)
	p.AddVanishingLine(vp.ID, project.AxisX, 460.655, 284.017, 598.359, 275.188)
	p.AddVanishingLine(vp.ID, project.AxisZ, 500.000, 400.000, 409.091, 339.394)
	p.AddVanishingLine(vp.ID, project.AxisZ, 585.856, 305.114, 486.052, 256.742)
	return p
}
