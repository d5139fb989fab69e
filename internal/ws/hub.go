package ws

// Subscriber abstracts a streaming client.
type Subscriber interface {
	Send([]byte) error
	Close()
}

// Hub fans ingested measurements out to stream subscribers, keyed by
// platform label.
type Hub struct {
	clients   map[string]map[Subscriber]struct{}
	register  chan subscription
	unreg     chan subscription
	broadcast chan message
}

// message couples payload with platform label.
type message struct {
	platform string
	payload  []byte
}

// subscription defines register/unregister requests.
type subscription struct {
	platform string
	client   Subscriber
}

// NewHub creates an initialized Hub.
func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[string]map[Subscriber]struct{}),
		register:  make(chan subscription),
		unreg:     make(chan subscription),
		broadcast: make(chan message),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case sub := <-h.register:
			if _, ok := h.clients[sub.platform]; !ok {
				h.clients[sub.platform] = make(map[Subscriber]struct{})
			}
			h.clients[sub.platform][sub.client] = struct{}{}
		case sub := <-h.unreg:
			if clients, ok := h.clients[sub.platform]; ok {
				delete(clients, sub.client)
				if len(clients) == 0 {
					delete(h.clients, sub.platform)
				}
			}
		case msg := <-h.broadcast:
			if clients, ok := h.clients[msg.platform]; ok {
				for c := range clients {
					if err := c.Send(msg.payload); err != nil {
						c.Close()
						delete(clients, c)
					}
				}
				if len(clients) == 0 {
					delete(h.clients, msg.platform)
				}
			}
		}
	}
}

// Register adds a client to a platform stream.
func (h *Hub) Register(platform string, client Subscriber) {
	h.register <- subscription{platform: platform, client: client}
}

// Unregister removes a client.
func (h *Hub) Unregister(platform string, client Subscriber) {
	h.unreg <- subscription{platform: platform, client: client}
}

// Broadcast sends payload to all clients watching a platform.
func (h *Hub) Broadcast(platform string, payload []byte) {
	h.broadcast <- message{platform: platform, payload: payload}
}
