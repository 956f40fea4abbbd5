package narrative

import (
	"fmt"
	"strings"

	"github.com/subhan986/JoJo-Stand-connector/internal/model"
)

const persona = `You are a master of the absurd and an encyclopedic expert on JoJo's Bizarre Adventure. Your mission is to unearth the most creative, outlandish and ridiculously intricate connections between a user's input and the world of JoJo. Do not settle for the obvious; weave a web of logic so convoluted it becomes genius.`

const analyzeSchema = `Respond with one JSON object of exactly this shape:
{
  "connectionTitle": string,            // a catchy title for the connection
  "connectionSteps": [                  // at least one step, in order
    {"explanation": string, "imagePrompt": string}
  ],
  "bizarreOMeter": integer,             // 1 (direct reference) to 5 (absurd stretch)
  "supportingEvidence": [string]        // optional media URLs, quotes or links
}`

// analyzePrompt builds the user turn for a normalized payload. Image and
// file payloads travel as attached media, so only their type is named here.
func analyzePrompt(p model.Payload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The user provided an input of type %s. ", p.Type)
	b.WriteString("Deconstruct it into its most obscure components: concepts, aesthetics, historical footnotes, anything is fair game. ")
	b.WriteString("Then brainstorm the most unexpected links to the JoJo universe (manga, anime, characters, Stands, plot points, author inspirations, music references, esoteric trivia).\n\n")
	if p.Type == model.PayloadURL {
		b.WriteString("If the input is a YouTube URL, call the getYouTubeTranscript tool and analyze the transcript for maximum absurdity.\n\n")
	}
	b.WriteString("Select the most ridiculously compelling connection and explain it step by step. ")
	b.WriteString("For each step give the explanation and a detailed image prompt that shows the step in a vibrant, absurd, anime-like style consistent with JoJo's Bizarre Adventure.\n\n")

	switch p.Type {
	case model.PayloadText:
		fmt.Fprintf(&b, "Input: %s\n\n", p.Text)
	case model.PayloadURL:
		fmt.Fprintf(&b, "Input: %s\n\n", p.URL)
	default:
		b.WriteString("Input: the attached media.\n\n")
	}
	b.WriteString(analyzeSchema)
	return b.String()
}

func titlePrompt(input, summary string) string {
	return fmt.Sprintf(`You are an expert in JoJo's Bizarre Adventure and a master of catchy, thematic titles.

Generate a title that reflects the bizarre nature of JoJo's Bizarre Adventure, based on the user input and connection summary below. The title should be engaging, shareable and capture the essence of the connection.

User Input: %s
Connection Summary: %s

Respond with one JSON object: {"title": string}`, input, summary)
}

func ratingPrompt(explanation string) string {
	return fmt.Sprintf(`You are an expert in analyzing connections to JoJo's Bizarre Adventure.

Rate the strength of the connection below from 1 to 5, where 1 is a direct reference and 5 is an absurdly bizarre stretch, and explain your rating.

Connection Explanation: %s

Respond with one JSON object: {"bizarrenessRating": integer, "ratingExplanation": string}`, explanation)
}
