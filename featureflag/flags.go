package featureflag

type Flag string

const (
	// Scenes index objects but never compute illumination.
	FlagDisableLighting Flag = "DISABLE_LIGHTING"

	// Refuses websocket debug stream connections.
	FlagDisableDebugStream Flag = "DISABLE_DEBUG_STREAM"

	// Scenes created with the default configuration are pre-split.
	FlagPreSplitScenes Flag = "PRESPLIT_SCENES"
)
