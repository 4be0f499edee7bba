package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	devenv "rapthor-backend/dev/env"
)

const portalConfigTemplate = `{
	base_url: "https://auchan.atgpedi.net",
	username: "",
	password: "",
	// leave empty to find the listing by its "Commandes" link
	listing_path: "",
	// DD/MM/YYYY, empty clears the filter
	date: "",
}
`

func writeTemplate(name, contents string, recreate bool) error {
	path, err := devenv.ResolvePath(fmt.Sprintf("<dev_state>/%s", name))
	if err != nil {
		return err
	}
	_, err = os.Stat(path)
	if err == nil && !recreate {
		slog.Info("config already exists", "path", path)
		return nil
	}
	err = os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		return err
	}
	slog.Info("wrote config template", "path", path)
	return nil
}

func create(recreate bool) error {
	_, err := os.Stat("go.mod")
	if os.IsNotExist(err) {
		return fmt.Errorf("the dev environment must be created in the repository root (the same directory as the 'go.mod' file)")
	}

	err = writeTemplate("portal_config.json5", portalConfigTemplate, recreate)
	if err != nil {
		return err
	}
	slog.Info("fill in dev/.state/portal_config.json5 to run the live portal tests, they are skipped otherwise")
	return nil
}

func main() {
	recreate := flag.Bool("recreate", false, "overwrite existing config files with empty templates")
	flag.Parse()

	err := create(*recreate)
	if err != nil {
		slog.Error("failed to create dev environment", "err", err.Error())
		os.Exit(1)
	}

	slog.Info("dev environment created sucessfully!")
}
