package assets

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/marmot/engine/core"
	"github.com/spaghettifunk/marmot/engine/resources"
)

/** @brief Contents of an .amt material file. */
type MaterialConfig struct {
	Name            string
	ShaderName      string
	AutoRelease     bool
	DiffuseColour   mgl32.Vec4
	Shininess       float32
	DiffuseMapName  string
	SpecularMapName string
	NormalMapName   string
}

// Material is a material configuration with an optional texture decoded
// alongside it.
type Material struct {
	resources.Base
	dir         string
	path        string
	texturePath string
	flipY       bool

	config  *MaterialConfig
	texture *ImageData
}

type MaterialInstance struct {
	Config  MaterialConfig
	Texture *ImageData
	Colour  mgl32.Vec4
}

func NewMaterial(id resources.ID, env *resources.Env) resources.Resource {
	return &Material{Base: resources.NewBase(id, env)}
}

func (m *Material) Create(dir string, node *resources.Node) error {
	path, err := node.Required("path")
	if err != nil {
		return err
	}
	flip, err := node.Bool("flip_y", true)
	if err != nil {
		return err
	}
	m.dir = dir
	m.path = path
	m.texturePath = strings.TrimSpace(node.String("texture", ""))
	m.flipY = flip
	return nil
}

func (m *Material) Load() error {
	return m.DriveLoad(func() error {
		f, resolved, err := openPayload(m.Env(), m.dir, m.path)
		if err != nil {
			return err
		}
		cfg, err := parseAMT(f, resolved, m.Log())
		f.Close()
		if err != nil {
			return err
		}
		if cfg.Name == "" {
			cfg.Name = m.Name()
		}
		if err := validateMaterial(cfg); err != nil {
			return fmt.Errorf("%w: '%s': %v", core.ErrBadParam, resolved, err)
		}

		var tex *ImageData
		if m.texturePath != "" {
			tex, err = loadImage(m.Env(), m.dir, m.texturePath, m.flipY)
			if err != nil {
				return err
			}
		}
		m.config = cfg
		m.texture = tex
		m.Track(tex.Size())
		return nil
	})
}

func (m *Material) Unload() error {
	return m.DriveUnload(func() error {
		m.Release(m.texture.Size())
		m.config = nil
		m.texture = nil
		return nil
	})
}

// Config is nil unless the material is loaded.
func (m *Material) Config() *MaterialConfig { return m.config }

func (m *Material) Texture() *ImageData { return m.texture }

func (m *Material) CreateInstance() *MaterialInstance {
	if m.State() != resources.StateLoaded {
		return nil
	}
	return &MaterialInstance{
		Config:  *m.config,
		Texture: m.texture,
		Colour:  m.config.DiffuseColour,
	}
}

func parseAMT(r io.Reader, source string, log *core.Logger) (*MaterialConfig, error) {
	scanner := bufio.NewScanner(r)
	cfg := &MaterialConfig{DiffuseColour: mgl32.Vec4{1, 1, 1, 1}}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			log.LogWarn("%s:%d: skipping invalid line: %s", source, lineNo, line)
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "name":
			cfg.Name = value
		case "shader":
			cfg.ShaderName = value
		case "diffuse_colour":
			colourValues := strings.Fields(value)
			if len(colourValues) != 4 {
				return nil, fmt.Errorf("%w: %s:%d: invalid diffuse_colour, expected 4 values", core.ErrBadParam, source, lineNo)
			}
			for i, v := range colourValues {
				f, err := strconv.ParseFloat(v, 32)
				if err != nil {
					return nil, fmt.Errorf("%w: %s:%d: invalid diffuse_colour value: %s", core.ErrBadParam, source, lineNo, v)
				}
				cfg.DiffuseColour[i] = float32(f)
			}
		case "shininess":
			shininess, err := strconv.ParseFloat(value, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: %s:%d: invalid shininess value: %s", core.ErrBadParam, source, lineNo, value)
			}
			cfg.Shininess = float32(shininess)
		case "diffuse_map_name":
			cfg.DiffuseMapName = value
		case "specular_map_name":
			cfg.SpecularMapName = value
		case "normal_map_name":
			cfg.NormalMapName = value
		case "autorelease":
			autoRelease, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("%w: %s:%d: invalid autorelease value: %s", core.ErrBadParam, source, lineNo, value)
			}
			cfg.AutoRelease = autoRelease
		default:
			log.LogWarn("%s:%d: unknown key '%s', skipping", source, lineNo, key)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateMaterial(material *MaterialConfig) error {
	if material.ShaderName == "" {
		return fmt.Errorf("shader name is required")
	}
	for _, c := range material.DiffuseColour {
		if c < 0 || c > 1 {
			return fmt.Errorf("diffuse_colour values must be between 0.0 and 1.0")
		}
	}
	if material.Shininess < 0 {
		return fmt.Errorf("shininess must be a non-negative value")
	}
	return nil
}
