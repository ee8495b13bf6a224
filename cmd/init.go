package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/socstudy-cli/internal/config"
	"github.com/KaramelBytes/socstudy-cli/internal/utils"
	"github.com/KaramelBytes/socstudy-cli/internal/workspace"
)

var (
	initDescription   string
	initStudyNumber   string
	initCuratedNumber string
	initCuratedName   string
)

var initCmd = &cobra.Command{
	Use:   "init <workspace-name>",
	Short: "Initialize a new study workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if name != filepath.Base(name) || name == "." || name == ".." {
			return fmt.Errorf("invalid workspace name %q", name)
		}
		g, err := globalConfig()
		if err != nil {
			return err
		}
		root, err := workspacesRoot(g)
		if err != nil {
			return err
		}
		wsDir := filepath.Join(root, name)
		// Refuse to overwrite an existing workspace.
		if info, err := os.Stat(wsDir); err == nil && info.IsDir() {
			if _, err := os.Stat(filepath.Join(wsDir, workspace.FileName)); err == nil {
				return fmt.Errorf("workspace already exists at %s", wsDir)
			}
			entries, err := os.ReadDir(wsDir)
			if err != nil {
				return fmt.Errorf("inspect workspace directory: %w", err)
			}
			if len(entries) > 0 {
				return fmt.Errorf("directory %s already exists and is not empty; refusing to initialize workspace", wsDir)
			}
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stat workspace directory: %w", err)
		}
		if err := utils.EnsureDir(wsDir); err != nil {
			return err
		}
		ws := workspace.New(name, initDescription, wsDir)
		if initStudyNumber != "" {
			ws.Study.StudyNumber = initStudyNumber
		}
		ws.Study.CuratedNumber = initCuratedNumber
		ws.Study.CuratedName = initCuratedName
		if err := ws.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Workspace initialized: %s\n", wsDir)
		return nil
	},
}

// workspacesRoot returns the expanded workspaces directory, creating it.
func workspacesRoot(g *cfgpkg.Global) (string, error) {
	if g.WorkspacesDir == "" {
		return "", errors.New("workspaces_dir is not configured")
	}
	dir, err := utils.ExpandHome(g.WorkspacesDir)
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func loadWorkspace(name string) (*workspace.Workspace, error) {
	if name == "" {
		return nil, errors.New("workspace name is required")
	}
	if name != filepath.Base(name) {
		return nil, fmt.Errorf("invalid workspace name %q", name)
	}
	g, err := globalConfig()
	if err != nil {
		return nil, err
	}
	root, err := workspacesRoot(g)
	if err != nil {
		return nil, err
	}
	return workspace.Load(filepath.Join(root, name))
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initDescription, "desc", "d", "", "workspace description")
	initCmd.Flags().StringVar(&initStudyNumber, "study-number", "", "study number (defaults to the workspace name)")
	initCmd.Flags().StringVar(&initCuratedNumber, "curated-number", "", "curated study number")
	initCmd.Flags().StringVar(&initCuratedName, "curated-name", "", "curated study name")
}
