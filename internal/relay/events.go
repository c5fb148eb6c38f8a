package relay

import "encoding/json"

// Inbound and outbound event names. Field names on the payloads match what
// clients already send over the socket.
const (
	EventLogin          = "login"
	EventText           = "text"
	EventAddToGroupChat = "addToGroupChat"
	EventAudio          = "audio"
	EventDataFiles      = "dataFiles"
	EventCallUser       = "callUser"
	EventAnswerCall     = "answerCall"
	EventCallAccepted   = "callAccepted"
)

// Envelope is the wire frame: a named event plus its raw payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type LoginEvent struct {
	UserID string `json:"userId"`
}

type TextEvent struct {
	ChatID string `json:"chatId"`
	Text   string `json:"text"`
	Type   string `json:"type"`
}

type AddToGroupChatEvent struct {
	NewUserIDs []string `json:"newUserIds"`
	ChatID     string   `json:"chatId"`
}

// AudioChunkEvent carries one binary fragment of a voice recording. Chunk is
// base64 on the wire (encoding/json does that for byte slices).
type AudioChunkEvent struct {
	FromUser    string `json:"fromUser"`
	ChatID      string `json:"chatId"`
	ChunkIndex  int    `json:"chunkIndex"`
	Chunk       []byte `json:"chunk"`
	TotalChunks int    `json:"totalChunks"`
}

// FileChunkEvent carries one fragment of a file or image upload. Chunk is a
// segment of a data URI ("<meta>,<base64>"), so only the first chunk carries
// the prefix. DataFilesCount is how many complete files belong to the same
// logical send.
type FileChunkEvent struct {
	FromUser       string `json:"fromUser"`
	ChatID         string `json:"chatId"`
	DataFileID     string `json:"dataFileId"`
	FileName       string `json:"fileName"`
	Chunk          string `json:"chunk"`
	ChunkIndex     int    `json:"chunkIndex"`
	TotalChunks    int    `json:"totalChunks"`
	DataFilesCount int    `json:"dataFilesCount"`
	Type           string `json:"type"`
}

// CallEvent is only partially decoded: the router needs the target list, and
// the rest of the payload is echoed back verbatim to the callees.
type CallEvent struct {
	ChatUserIDs []string `json:"chatUserIds"`
}

// CallResponse wraps the original call payload for the receiving side.
type CallResponse struct {
	Response json.RawMessage `json:"response"`
}

// GroupInvite is pushed back to the user who added members to a group chat.
type GroupInvite struct {
	NewUserIDs []string `json:"newUserIds"`
	ChatID     string   `json:"chatId"`
}
