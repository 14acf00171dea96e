package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/foodhub/internal/domain/assistant"
	"github.com/xenking/foodhub/internal/domain/session"
)

const (
	imageField      = "image"
	multipartMemory = 1 << 20
	// multipartOverhead allows for boundaries and headers around the image.
	multipartOverhead = 64 << 10
)

// chat relays a message to the assistant. Provider failures are not errors
// for the client: it gets the fallback reply instead.
func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeChat(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	fallback := false
	reply, err := h.assistant.Chat(r.Context(), req.ConversationID, req.Message)
	if err != nil {
		zctx.From(r.Context()).Warn("Chat failed", zap.Error(err))
		reply, fallback = assistant.FallbackReply, true
	}
	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.FieldStart("reply")
			e.Str(reply)
			e.FieldStart("fallback")
			e.Bool(fallback)
		})
	})
}

// identify generates a listing name and description from a product photo
// uploaded as multipart field "image".
func (h *Handler) identify(w http.ResponseWriter, r *http.Request) {
	img, err := readImage(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	listing, err := h.assistant.IdentifyFood(r.Context(), img)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.FieldStart("name")
			e.Str(listing.Name)
			e.FieldStart("description")
			e.Str(listing.Description)
		})
	})
}

func readImage(w http.ResponseWriter, r *http.Request) (assistant.Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, assistant.MaxImageSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return assistant.Image{}, errors.Wrap(err, "parse upload")
		}
		return assistant.Image{}, badRequest(errors.Wrap(err, "parse upload"))
	}
	f, hdr, err := r.FormFile(imageField)
	if err != nil {
		return assistant.Image{}, badRequestf("multipart field %q is required", imageField)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, assistant.MaxImageSize+1))
	if err != nil {
		return assistant.Image{}, errors.Wrap(err, "read upload")
	}
	mime := hdr.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	img := assistant.Image{MIMEType: mime, Data: data}
	return img, img.Validate()
}

// recommend asks the assistant for items similar to a session product and
// stores them as the session's recommendations. The session is only
// updated when the provider succeeds.
func (h *Handler) recommend(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeProductRequest(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	st, err := h.sessions.Get(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	source, err := st.Product(req.ProductID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	suggestions, err := h.assistant.Recommend(r.Context(), source.Name, source.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.update(w, r, func(st session.State) (session.State, error) {
		return st.SetRecommendations(source, suggestions), nil
	}, func(e *jx.Encoder, st session.State) {
		encodeProducts(e, st.Recommendations(), observerOf(st))
	})
}
