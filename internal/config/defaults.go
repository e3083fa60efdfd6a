package config

const (
	defaultImageDir         = "images"
	defaultAnnotationDir    = "annotations"
	defaultOutputFile       = "model/train.record"
	defaultResizeLonger     = 0
	defaultDownsampleFilter = "box"
	defaultUpsampleFilter   = "linear"
	defaultJPEGQuality      = 90
	defaultLogLevel         = "info"
	defaultLogMaxSizeMB     = 100
	defaultLogMaxBackups    = 3
	defaultLogMaxAgeDays    = 7
)

// DefaultClassNames is the default class catalog. Class IDs are the 1-indexed positions.
var DefaultClassNames = []string{"CPU", "Mesa", "Mouse", "Pantalla", "Silla", "Teclado"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ImageDir:      defaultImageDir,
			AnnotationDir: defaultAnnotationDir,
			OutputFile:    defaultOutputFile,
		},
		Classes: Classes{
			Names: append([]string(nil), DefaultClassNames...),
		},
		Image: Image{
			ResizeLonger:     defaultResizeLonger,
			DownsampleFilter: defaultDownsampleFilter,
			UpsampleFilter:   defaultUpsampleFilter,
			JPEGQuality:      defaultJPEGQuality,
		},
		Logging: Logging{
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
