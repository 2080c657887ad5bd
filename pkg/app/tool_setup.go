package app

import (
	"fmt"

	"github.com/ilkoid/poncho-toolcall/pkg/config"
	"github.com/ilkoid/poncho-toolcall/pkg/s3storage"
	"github.com/ilkoid/poncho-toolcall/pkg/tools"
	"github.com/ilkoid/poncho-toolcall/pkg/tools/std"
	"github.com/ilkoid/poncho-toolcall/pkg/utils"
)

// Имена встроенных инструментов.
const (
	ToolReadFile = "read_file"
	ToolListDir  = "list_dir"
	ToolFetchURL = "fetch_url"
	ToolS3List   = "s3_list"
	ToolS3Read   = "s3_read"
)

// SetupTools создаёт встроенные инструменты, включённые в config.yaml.
//
// Инструмент, не упомянутый в секции tools, включён.
// Файловые инструменты регистрируются только при заданном files.root,
// S3 инструменты - только при заданном s3.bucket.
func SetupTools(cfg *config.AppConfig) ([]tools.Tool, error) {
	var toolset []tools.Tool

	if cfg.Files.Root != "" {
		if cfg.ToolEnabled(ToolListDir) {
			toolset = append(toolset, std.NewListDirTool(cfg.Files.Root))
		}
		if cfg.ToolEnabled(ToolReadFile) {
			toolset = append(toolset, std.NewReadFileTool(cfg.Files.Root, 0))
		}
	} else {
		utils.Debug("files.root is empty, file tools are not registered")
	}

	if cfg.ToolEnabled(ToolFetchURL) {
		fetchCfg := cfg.Fetch.GetDefaults()
		fetch, err := std.NewFetchURLTool(std.FetchConfig{
			RatePerMinute: fetchCfg.RatePerMinute,
			Burst:         fetchCfg.Burst,
			MaxBytes:      fetchCfg.MaxBytes,
		})
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", ToolFetchURL, err)
		}
		toolset = append(toolset, fetch)
	}

	if cfg.S3.Bucket != "" && (cfg.ToolEnabled(ToolS3List) || cfg.ToolEnabled(ToolS3Read)) {
		s3Tools, err := setupS3Tools(cfg)
		if err != nil {
			return nil, err
		}
		toolset = append(toolset, s3Tools...)
	}

	for name := range cfg.Tools {
		switch name {
		case ToolReadFile, ToolListDir, ToolFetchURL, ToolS3List, ToolS3Read:
		default:
			utils.Warn("Unknown tool in config, skipping", "name", name)
		}
	}

	names := make([]string, 0, len(toolset))
	for _, t := range toolset {
		names = append(names, t.Definition().Name)
	}
	utils.Info("Tools registered", "count", len(toolset), "names", names)

	return toolset, nil
}

// setupS3Tools создаёт S3 клиент и инструменты поверх него.
func setupS3Tools(cfg *config.AppConfig) ([]tools.Tool, error) {
	client, err := s3storage.New(cfg.S3)
	if err != nil {
		utils.Error("S3 client creation failed", "error", err)
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	utils.Info("S3 client initialized", "bucket", client.Bucket())

	var out []tools.Tool
	if cfg.ToolEnabled(ToolS3List) {
		list, err := std.NewS3ListTool(client)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", ToolS3List, err)
		}
		out = append(out, list)
	}
	if cfg.ToolEnabled(ToolS3Read) {
		read, err := std.NewS3ReadTool(client, cfg.S3.MaxBytes)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", ToolS3Read, err)
		}
		out = append(out, read)
	}
	return out, nil
}
