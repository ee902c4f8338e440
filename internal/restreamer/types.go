package restreamer

// Command is a process state-change verb.
type Command string

const (
	CommandStart Command = "start"
	CommandStop  Command = "stop"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

type commandRequest struct {
	Command Command `json:"command"`
}
