package settings

// Keys written by the option derivation stage.
const (
	IsDebug        = "is_debug"
	IsASan         = "is_asan"
	IsTSan         = "is_tsan"
	IsUBSan        = "is_ubsan"
	EnableDemo     = "enable_demo"
	EnableAltDemo  = "enable_alt_demo"
	EnableUnitTest = "enable_unittests"
	BuildShared    = "build_shared"
	BuildStatic    = "build_static"
	JSEngine       = "js_engine"
	V8HWDebug      = "enable_v8_hw_debug"
	JSCHWDebug     = "enable_jsc_hw_debug"
	HasMediaPlayer = "has_media_player"
	Decoder        = "decoder"
	SDLAudio       = "sdl_audio"
	SDLVideo       = "sdl_video"
	Containers     = "ffmpeg_containers"
	Codecs         = "ffmpeg_codecs"
	HWDecode       = "ffmpeg_hw_decode"
	HWAccels       = "ffmpeg_hwaccels"
	ExtraDecoders  = "ffmpeg_extra_decoders"
	TargetOS       = "target_os"
	TargetCPU      = "target_cpu"
	HostOS         = "host_os"
	HostCPU        = "host_cpu"
	PluginPaths    = "plugin_paths"
	CCWrapper      = "cc_wrapper"
	CodeSign       = "enable_code_sign"
)

// DeriveStage is the owner name of keys written by option derivation.
const DeriveStage = "derive"
