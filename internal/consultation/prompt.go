package consultation

import "fmt"

// The prompt templates and the parser are coupled by vocabulary: the model
// is told to use the exact words ("severity", "emergency", "medical
// attention", "see a doctor") that the parser keys on. Keep them in sync
// when editing either side; prompt_test.go enforces the pairing.

const medicalPromptTemplate = `You are a medical information assistant for an online pharmacy. A patient describes their symptoms below. Respond in plain prose, not JSON.

Patient symptoms: %s

In your answer:
1. List the possible causes of these symptoms.
2. Give immediate care guidance the patient can follow at home.
3. State clearly when the patient should see a doctor or seek medical attention.
4. Give general wellness advice.

Include an explicit severity assessment using exactly one of the words: low, medium, or high. If the symptoms could be an emergency, say the word "emergency" and tell the patient to seek urgent medical attention. If a professional visit is advisable, say "see a doctor".

This is general information, not a diagnosis.%s`

const prescriptionPromptTemplate = `You are a pharmacist's assistant. Analyze the following prescription text and extract its contents so they can be processed programmatically.

Prescription text: %s

For each medicine, state its name followed by the dosage in mg on the same line (for example "Amoxicillin 500 mg"). Then list:
1. Frequency and duration for each medicine.
2. Known interactions between the listed medicines.
3. Dosage warnings - begin each such line with the word "Warning".
4. Special instructions (with food, avoid alcohol, and so on).

If any part of the prescription is illegible or ambiguous, say so rather than guessing.`

// BuildMedicalPrompt renders the consultation prompt for the given symptom
// text. Pure; the symptoms are interpolated verbatim.
func BuildMedicalPrompt(symptoms, language string) string {
	langInstruction := ""
	if language != "" && language != "en" {
		langInstruction = fmt.Sprintf("\n\nRespond in the language with code %q.", language)
	}
	return fmt.Sprintf(medicalPromptTemplate, symptoms, langInstruction)
}

// BuildPrescriptionPrompt renders the prescription-analysis prompt.
func BuildPrescriptionPrompt(prescriptionText string) string {
	return fmt.Sprintf(prescriptionPromptTemplate, prescriptionText)
}
