package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"

	"github.com/avoronov/signalhub/internal/config"
)

// ICEAPI hands clients the STUN/TURN server list to use when building
// their peer connections.
type ICEAPI struct {
	Config *config.Config
}

func (a *ICEAPI) List(c *gin.Context) {
	servers := make([]webrtc.ICEServer, 0, 2)
	if len(a.Config.StunURLs) > 0 {
		servers = append(servers, webrtc.ICEServer{URLs: a.Config.StunURLs})
	}
	if len(a.Config.TurnURLs) > 0 {
		servers = append(servers, webrtc.ICEServer{
			URLs:           a.Config.TurnURLs,
			Username:       a.Config.TurnUsername,
			Credential:     a.Config.TurnCredential,
			CredentialType: webrtc.ICECredentialTypePassword,
		})
	}
	c.JSON(http.StatusOK, gin.H{"iceServers": servers})
}
