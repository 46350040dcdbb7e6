package gemini

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when neither a claim nor an image was supplied.
var ErrEmptyInput = errors.New("claim or image required")

const systemInstruction = `Tu es Veritas, une IA d'élite spécialisée dans le fact-checking et l'analyse forensique.
Ta mission est de vérifier rigoureusement les affirmations et les images en utilisant la recherche Google en temps réel.

PROTOCOLE D'ANALYSE :
1. **Recherche & Vérification** : Scanne le web pour vérifier les faits (sources récentes).
2. **Gestion des LIENS (Crucial)** :
   - Si l'input contient un lien (TikTok, YouTube, Twitter...), NE TE CONTENTE PAS DE L'URL.
   - **EXTRAIS** le nom d'utilisateur ou la chaîne de l'URL (ex: "@jonathaneditz" dans tiktok.com/@jonathaneditz...).
   - **CHERCHE** la réputation de ce créateur : Est-il connu pour des fakes ? Des VFX ? De la satire ? Du contenu IA ?
   - Utilise cette réputation pour formuler un verdict probable si la vidéo spécifique n'est pas trouvée.
3. **Analyse d'Image (si présente)** :
   - Décris ce que tu vois et détecte les artefacts d'IA.

FORMAT DE RÉPONSE STRICT (EN FRANÇAIS) :
Ligne 1 : Uniquement le verdict en majuscules parmi : "TRUE", "FALSE", "MISLEADING", "NUANCED", "AI_GENERATED", "MANIPULATED", "UNVERIFIED".
Ligne 2 : "CONFIDENCE: X" où X est ton niveau de confiance entre 0 et 100.
Ligne 3 : Un résumé court et percutant en 1 phrase (max 200 caractères).
Ligne 4 : Vide.
Ligne 5+ : Ton analyse détaillée structurée.
- Si c'est un lien vidéo : Analyse le profil du créateur (ex: "Ce compte est célèbre pour ses montages VFX réalistes...").
- Ne dis JAMAIS "Je ne peux pas voir la vidéo". Dis plutôt "D'après l'analyse du profil du créateur [Nom]...".
À la fin, ajoute une section "SOURCES_DETAILS:" listant chaque source consultée au format :
- <url> : <titre> | <résumé en une ligne>

ATTENTION:
- Réponds TOUJOURS en FRANÇAIS.
- Ne mets JAMAIS de markdown sur la première ligne.`

// generateRequest mirrors the v1beta generateContent payload
type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	Tools             []tool            `json:"tools,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type tool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// VerifyInput is the caller-supplied material for one verification.
type VerifyInput struct {
	Claim        string
	ImageData    []byte
	ImageMIME    string
	ImageContext string // technical metadata extracted from the image, if any
}

func (in VerifyInput) hasImage() bool {
	return len(in.ImageData) > 0
}

// composeRequest builds the outbound payload. Pure construction: the network
// call is performed by the client so this stays independently testable.
func composeRequest(in VerifyInput) (*generateRequest, error) {
	if in.Claim == "" && !in.hasImage() {
		return nil, ErrEmptyInput
	}

	userTurn := content{Role: "user"}

	if in.hasImage() {
		mime := in.ImageMIME
		if mime == "" {
			mime = "image/jpeg"
		}
		userTurn.Parts = append(userTurn.Parts, part{
			InlineData: &inlineData{
				MimeType: mime,
				Data:     base64.StdEncoding.EncodeToString(in.ImageData),
			},
		})

		prompt := "ANALYSE FORENSIQUE DE L'IMAGE:\n"
		if in.Claim != "" {
			prompt += fmt.Sprintf("Contexte: %q\n", in.Claim)
		}
		if in.ImageContext != "" {
			prompt += fmt.Sprintf("Métadonnées techniques: %s\n", in.ImageContext)
		}
		userTurn.Parts = append(userTurn.Parts, part{Text: prompt})
	} else {
		userTurn.Parts = append(userTurn.Parts, part{
			Text: fmt.Sprintf("ANALYSE CETTE AFFIRMATION:\n%q", in.Claim),
		})
	}

	return &generateRequest{
		Contents: []content{userTurn},
		SystemInstruction: &content{
			Parts: []part{{Text: systemInstruction}},
		},
		Tools: []tool{{GoogleSearch: &struct{}{}}},
		GenerationConfig: &generationConfig{
			Temperature:     0.1,
			TopP:            0.95,
			TopK:            40,
			MaxOutputTokens: 2048,
		},
	}, nil
}
