package services

import (
	"fmt"
	"strings"
)

const outfitDescribePrompt = `Describe this outfit in extreme detail for image generation purposes. Focus on:

1. **Clothing Items**: Identify each piece (shirt, pants, dress, jacket, etc.) with specific style names (e.g., "cropped hoodie", "high-waisted jeans", "bodycon dress")

2. **Colors & Patterns**: Describe exact colors, color combinations, and any patterns (stripes, florals, geometric, solid, etc.)

3. **Textile & Material**: Identify fabric types (cotton, denim, silk, leather, knit, etc.) and their qualities (soft, structured, flowing, rigid)

4. **Texture**: Describe visible texture (smooth, ribbed, quilted, distressed, brushed, glossy, matte, fuzzy, etc.)

5. **Fit & Silhouette**: Describe how the garment fits (oversized, fitted, relaxed, tailored, skin-tight, loose) and the overall silhouette

6. **Style & Aesthetic**: Name the fashion style (streetwear, athleisure, casual, sporty, chic, minimalist, etc.)

7. **Details & Accessories**: Mention any visible details like zippers, buttons, logos, pockets, jewelry, belts, bags, shoes

Provide a comprehensive 3-4 sentence description that captures all these elements for accurate image generation.`

const locationDescribePrompt = "Describe this location in detail for a professional photography prompt. Include: architectural style, lighting conditions, atmosphere, colors, textures, mood, and any distinctive features. Be specific and vivid. Keep it under 100 words."

const poseDescribePrompt = "Describe the pose of the person in this image in detail for an image generation prompt. Include: overall body position and posture, weight distribution, arm and hand placement, leg placement, head tilt, gaze direction, facial expression and the energy the pose conveys. Describe only the pose, not the person's identity or clothing. Keep it under 80 words."

// DescribePrompt returns the instruction used to describe a reference image of the given kind.
func DescribePrompt(kind ReferenceKind) string {
	switch kind {
	case ReferenceOutfit:
		return outfitDescribePrompt
	case ReferencePose:
		return poseDescribePrompt
	default:
		return locationDescribePrompt
	}
}

// DescribeOptions are the sampling settings of every reference description call.
var DescribeOptions = TextOptions{Temperature: 0.4, MaxOutputTokens: 400}

// FallbackPrompt is used whenever the rewrite step produced nothing.
func FallbackPrompt(userIntent string) string {
	return fmt.Sprintf("Professional photograph of the person from this image, %s, natural lighting, photorealistic, high quality", userIntent)
}

// BuildUserIntent folds the location into the user's prompt. A described location image wins over the hint.
func BuildUserIntent(prompt, locationHint, locationDescription string) string {
	switch {
	case locationDescription != "":
		return fmt.Sprintf("%s, in this environment: %s", prompt, locationDescription)
	case locationHint != "":
		return fmt.Sprintf("%s in %s", prompt, locationHint)
	default:
		return prompt
	}
}

// SubjectLabel maps an image index to its letter: 0 -> "A", 1 -> "B".
func SubjectLabel(index int) string {
	return string(rune('A' + index))
}

func referenceSegments(descriptions []ReferenceDescription) string {
	var b strings.Builder
	for _, d := range descriptions {
		if strings.TrimSpace(d.Text) == "" {
			continue
		}
		switch d.Kind {
		case ReferenceOutfit:
			fmt.Fprintf(&b, "\n\nOUTFIT REFERENCE: The subject should be wearing: %s\nMake sure to incorporate this outfit description into the final image.", d.Text)
		case ReferencePose:
			fmt.Fprintf(&b, "\n\nPOSE REFERENCE: The subject should be posed like this: %s\nMatch this pose in the final image.", d.Text)
		}
	}
	return b.String()
}

// RewriteOptions returns the sampling settings for a rewrite style.
func RewriteOptions(style RewriteStyle) TextOptions {
	if style == RewriteCaption {
		return TextOptions{Temperature: 0.7, MaxOutputTokens: 1024}
	}
	return TextOptions{Temperature: 0.8, MaxOutputTokens: 500}
}

// RewriteInstruction is the text part of a rewrite call. Photographer style expects the subject images to be
// sent alongside (see RewriteSubjectIntro / SubjectCaption); caption style is text only.
func RewriteInstruction(in RewriteInput) string {
	if in.Style == RewriteCaption {
		return captionInstruction(in)
	}
	references := referenceSegments(in.Descriptions)
	if in.MultiSubject() {
		return fmt.Sprintf(`You are a world-class professional Adobe photographer with exceptional taste in image generation and editing.

User's intent: "%s"%s

Your task: Rewrite this into ONE professional image editing prompt that will be sent to an image generation API.

CRITICAL REQUIREMENTS FOR MULTI-CHARACTER GENERATION:
1. PRESERVE ALL subjects' facial identities, features, and essence EXACTLY as shown in the reference images
2. Refer to people as "subject A", "subject B", "subject C" etc. based on the order of reference images provided
3. The first image is subject A, the second image is subject B, and so on
4. Describe how ALL subjects interact in the scene naturally
5. Transform ONLY the scene, environment, lighting, clothing, pose, and atmosphere to match user's intent
6. Use professional photography language: lighting techniques, camera specs, composition, depth of field
7. Be specific about: time of day, weather, mood, color palette, styling
8. Keep it photorealistic - no cartoon, illustration, or stylization
9. Make it cinematic and high-quality

Return ONLY the rewritten prompt text, no JSON, no explanation, just the prompt itself.

Example format:
"Professional photograph of subject A and subject B together, [scene description with their interaction], [lighting details], [clothing if relevant], [camera and lens specs], [quality descriptors], photorealistic, 8k quality, preserve both subjects' identities exactly"

Now rewrite the user's intent into a single, detailed professional prompt using "subject A", "subject B" format:`, in.UserIntent, references)
	}
	return fmt.Sprintf(`You are a world-class professional Adobe photographer with exceptional taste in image generation and editing.

User's intent: "%s"%s

Your task: Rewrite this into ONE professional image editing prompt that will be sent to an image generation API.

CRITICAL REQUIREMENTS:
1. PRESERVE the subject's facial identity, features, and essence EXACTLY as shown in the photo
2. Transform ONLY the scene, environment, lighting, clothing, pose, and atmosphere to match user's intent
3. Use professional photography language: lighting techniques, camera specs, composition, depth of field
4. Be specific about: time of day, weather, mood, color palette, styling
5. Keep it photorealistic - no cartoon, illustration, or stylization
6. Make it cinematic and high-quality

Return ONLY the rewritten prompt text, no JSON, no explanation, just the prompt itself.

Example format:
"Professional photograph of the person from this image, [scene description], [lighting details], [clothing if relevant], [camera and lens specs], [quality descriptors], photorealistic, 8k quality"

Now rewrite the user's intent into a single, detailed professional prompt:`, in.UserIntent, references)
}

const captionSystemPrompt = `You are an expert in writing long, detailed image captions for professional photography. Given a short description of what a user wants to generate, your goal is to write an extremely detailed, descriptive caption that captures every visual element.

Be specific about:
- Subject: ethnicity, age, gender, expression, pose, body language
- Clothing & accessories: colors, textures, patterns, style, brand aesthetics
- Environment: architecture, furniture, materials, spatial layout, background elements
- Lighting: type (natural/artificial), direction, quality (hard/soft), color temperature, shadows, highlights
- Composition: framing, camera angle, depth of field, visual flow, balance
- Colors: dominant palette, accents, contrasts, saturation, warmth/coolness
- Mood & atmosphere: emotional tone, cultural references, cinematic qualities
- Technical style: photo realism level, film grain, sharpness, bokeh, color grading

Write in a dense, observational style like a professional photography description. Be objective and precise. Keep descriptions flowing naturally without bullet points.

Respond ONLY with the detailed description, no other text.`

func captionInstruction(in RewriteInput) string {
	var b strings.Builder
	b.WriteString(captionSystemPrompt)
	if in.MultiSubject() {
		labels := make([]string, len(in.Subjects))
		for i := range in.Subjects {
			labels[i] = "subject " + SubjectLabel(i)
		}
		fmt.Fprintf(&b, "\n\nThe scene contains %d people. Refer to them as %s, in the order of the reference images, and describe how they interact. Preserve every subject's facial identity exactly.", len(in.Subjects), strings.Join(labels, ", "))
	}
	b.WriteString(referenceSegments(in.Descriptions))
	fmt.Fprintf(&b, "\n\nUser prompt: \"%s\"\n\nWrite a detailed photographic description:", in.UserIntent)
	return b.String()
}

// RewriteSubjectIntro opens a multi-subject rewrite call, before the labelled images.
const RewriteSubjectIntro = "You will be shown multiple reference images. Each image represents a different person. Pay close attention to each person's unique facial features, expressions, and appearance."

// GenerationSubjectIntro opens a multi-subject generation call, before the labelled images.
const GenerationSubjectIntro = `MULTI-PERSON IMAGE GENERATION TASK

You must generate an image containing ALL the people shown in the reference images below. Each person must maintain their exact facial features, expressions, and appearance from their reference image.`

// SubjectCaption precedes the image of subject index i.
func SubjectCaption(index int) string {
	if index == 0 {
		return "Reference image for SUBJECT A (primary person):"
	}
	return fmt.Sprintf("\nReference image for SUBJECT %s (additional person %d):", SubjectLabel(index), index)
}

// GenerationSubjectOutro closes a multi-subject generation call.
func GenerationSubjectOutro(subjects int, prompt string) string {
	return fmt.Sprintf(`

IMPORTANT: The generated image MUST include ALL %d people shown above (SUBJECT A through SUBJECT %s). Each person must maintain their exact facial identity from their reference image.

Generation prompt: %s

Ensure all %d subjects are clearly visible and maintain their individual identities in the final image.`, subjects, SubjectLabel(subjects-1), prompt, subjects)
}

// AnalyzeImagePrompt asks a vision model for location/outfit/pose as JSON.
const AnalyzeImagePrompt = `Analyze this image and extract the following information in JSON format:

{
  "location": {
    "name": "Specific location name or description (e.g., 'Cozy Cafe Interior', 'Urban Street Corner', 'Beach Sunset')",
    "description": "Detailed description of the location and environment",
    "setting": "Indoor/Outdoor/Studio",
    "atmosphere": "Describe the mood and atmosphere"
  },
  "outfit": {
    "name": "Brief outfit name (e.g., 'Casual Denim Look', 'Formal Business Attire')",
    "description": "Extremely detailed description of all clothing items, colors, patterns, textures, fit, and style. Include every visible detail about the outfit.",
    "style": "Fashion style category (e.g., streetwear, casual, formal, athletic)",
    "colors": ["Primary color 1", "Primary color 2"]
  },
  "pose": {
    "name": "Pose name (e.g., 'Standing Confident', 'Sitting Relaxed', 'Walking Forward')",
    "description": "Detailed description of body position, posture, hand placement, facial expression",
    "mood": "The emotion/mood conveyed by the pose"
  }
}

Be specific and detailed, especially for the outfit description. Include fabric types, patterns, fit, and any accessories visible.`

// AnalyzeOptions are the sampling settings of the analysis call.
var AnalyzeOptions = TextOptions{Temperature: 0.4, MaxOutputTokens: 1000}
