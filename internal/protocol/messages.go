package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	World           string `json:"world"`
	RenderDistance  int    `json:"render_distance,omitempty"`
}

// TICK (client -> server): the viewer position of one frame.
type TickMsg struct {
	Type string     `json:"type"`
	Pos  [3]float32 `json:"pos"`
}

// INTERACT (client -> server)
type InteractMsg struct {
	Type   string     `json:"type"`
	Action string     `json:"action"`
	Eye    [3]float32 `json:"eye"`
	Dir    [3]float32 `json:"dir"`
	Block  string     `json:"block,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	SessionID       string     `json:"session_id"`
	World           string     `json:"world"`
	Seed            string     `json:"seed"`
	ChunkSize       int        `json:"chunk_size"`
	MinY            int        `json:"min_y"`
	Height          int        `json:"height"`
	Spawn           [3]float32 `json:"spawn"`
	Yaw             float32    `json:"yaw"`
	Pitch           float32    `json:"pitch"`
}

type ProgressMsg struct {
	Type     string  `json:"type"`
	Fraction float64 `json:"fraction"`
}

type ReadyMsg struct {
	Type string `json:"type"`
}

// ATTACH carries a chunk mesh. Box coordinates are relative to Origin.
type AttachMsg struct {
	Type     string       `json:"type"`
	CX       int          `json:"cx"`
	CZ       int          `json:"cz"`
	Origin   [3]int       `json:"origin"`
	Surfaces []SurfaceMsg `json:"surfaces"`
}

type SurfaceMsg struct {
	Block string `json:"block"`
	// Boxes are [x, y, z, width, height, depth].
	Boxes [][6]int `json:"boxes"`
}

type DetachMsg struct {
	Type string `json:"type"`
	CX   int    `json:"cx"`
	CZ   int    `json:"cz"`
}

// BLOCK reports a single accepted edit.
type BlockMsg struct {
	Type  string `json:"type"`
	Pos   [3]int `json:"pos"`
	Block string `json:"block"`
}

type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
